package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Category buckets a notification for routing and deep-linking.
type Category string

const (
	CategoryAppointment Category = "appointment"
	CategoryForm        Category = "form"
	CategoryMessage     Category = "message"
	CategoryCall        Category = "call"
	CategoryGeneral     Category = "general"
)

// Notification stores the delivered notification history per user.
type Notification struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1;index:idx_notifications_user_unread,priority:1" json:"user_id"`
	Category    Category       `gorm:"type:varchar(20);not null;index:idx_notifications_category" json:"category"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	URL         string         `gorm:"type:varchar(200)" json:"url,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsRead      bool           `gorm:"default:false;index:idx_notifications_user_unread,priority:2" json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_user_created,priority:2" json:"created_at"`
}

// Message mirrors the platform's direct-message rows. This service only
// counts unread rows for badge reconciliation; the messaging product owns
// everything else about the table.
type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_recipient_unread,priority:1" json:"recipient_id"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	IsRead      bool      `gorm:"default:false;index:idx_messages_recipient_unread,priority:2" json:"is_read"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
