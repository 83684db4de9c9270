package main

import (
	"log"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/config"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeds a demo client, a demo nutritionist and a handful of unread rows so
// the badge and the inbox have something to show on a fresh database.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Unable to run migrations: %v", err)
	}

	client := model.Profile{
		ID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Email:    "demo.client@greenofig.test",
		FullName: "Demo Client",
		Role:     model.RoleUser,
	}
	nutritionist := model.Profile{
		ID:       uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Email:    "demo.nutritionist@greenofig.test",
		FullName: "Demo Nutritionist",
		Role:     model.RoleNutritionist,
	}

	seedProfile(db, client)
	seedProfile(db, nutritionist)

	notifications := []model.Notification{
		{
			UserID:      client.ID,
			Category:    model.CategoryAppointment,
			Title:       "New Appointment Scheduled",
			Description: "Your appointment has been scheduled.",
			URL:         "/appointments",
			Metadata:    datatypes.JSON([]byte(`{"seed":true}`)),
		},
		{
			UserID:      client.ID,
			Category:    model.CategoryForm,
			Title:       "New Form Assigned",
			Description: "Your nutritionist assigned you a new form.",
			URL:         "/forms",
			Metadata:    datatypes.JSON([]byte(`{"seed":true}`)),
		},
		{
			UserID:      nutritionist.ID,
			Category:    model.CategoryGeneral,
			Title:       "New Client Signup",
			Description: "Demo Client just joined the platform.",
			URL:         "/dashboard",
			Metadata:    datatypes.JSON([]byte(`{"seed":true}`)),
		},
	}
	for _, n := range notifications {
		if err := db.Create(&n).Error; err != nil {
			color.Red("✗ notification %q: %v", n.Title, err)
			continue
		}
		color.Green("✓ notification %q for %s", n.Title, n.UserID)
	}

	messages := []model.Message{
		{
			SenderID:    nutritionist.ID,
			RecipientID: client.ID,
			Body:        "Welcome aboard! Let's review your goals this week.",
			CreatedAt:   time.Now().Add(-2 * time.Hour),
		},
		{
			SenderID:    client.ID,
			RecipientID: nutritionist.ID,
			Body:        "Thanks! Looking forward to it.",
			CreatedAt:   time.Now().Add(-1 * time.Hour),
		},
	}
	for _, m := range messages {
		if err := db.Create(&m).Error; err != nil {
			color.Red("✗ message from %s: %v", m.SenderID, err)
			continue
		}
		color.Green("✓ message from %s to %s", m.SenderID, m.RecipientID)
	}

	color.Cyan("Seeding complete.")
}

func seedProfile(db *gorm.DB, p model.Profile) {
	err := db.Where(model.Profile{ID: p.ID}).FirstOrCreate(&p).Error
	if err != nil {
		color.Red("✗ profile %s: %v", p.Email, err)
		return
	}
	color.Green("✓ profile %s (%s)", p.Email, p.Role)
}
