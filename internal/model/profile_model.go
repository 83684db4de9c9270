package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the platform's user profile rows. Read-only here: the
// email fallback provider resolves addresses from it, and staff signup
// notifications are driven by INSERTs on this table.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	FullName  string    `gorm:"type:varchar(200)" json:"full_name"`
	Role      Role      `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
