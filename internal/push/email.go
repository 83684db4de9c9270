package push

import (
	"context"
	"fmt"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/mailer"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"

	"github.com/google/uuid"
)

// EmailProvider is the basic fallback: when no push transport is up it mails
// the notification to the recipient's profile address.
type EmailProvider struct {
	mail     mailer.IEmailService
	profiles repository.ProfileRepository
	enabled  bool
}

func NewEmailProvider(mail mailer.IEmailService, profiles repository.ProfileRepository, smtpConfigured bool) *EmailProvider {
	return &EmailProvider{
		mail:     mail,
		profiles: profiles,
		enabled:  smtpConfigured,
	}
}

func (p *EmailProvider) Name() string { return "email" }

func (p *EmailProvider) Available() bool {
	return p.enabled && p.mail != nil && p.profiles != nil
}

func (p *EmailProvider) Send(ctx context.Context, userID uuid.UUID, payload *Payload) error {
	email, err := p.profiles.GetEmail(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve recipient email: %w", err)
	}
	return p.mail.SendNotification(email, payload.Title, payload.Body, payload.URL)
}
