package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendNotification(toEmail, title, body, url string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderEmail, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		clientURL:   clientURL,
	}
}

// SendNotification mails a single notification. Used as the basic fallback
// when no push channel is available for the recipient.
func (s *emailService) SendNotification(toEmail, title, body, url string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", title)

	link := s.clientURL + url
	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2 style="color: #4CAF50;">%s</h2>
			<p>%s</p>
			<p><a href="%s" style="color: #4CAF50;">Open GreenoFig</a></p>
			<p style="font-size: 12px; color: #999;">You received this because push notifications are not set up for your account.</p>
		</div>
	`, title, body, link)

	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send notification to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}
