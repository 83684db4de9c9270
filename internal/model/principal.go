package model

import "github.com/google/uuid"

// Role is the platform role carried in the auth token.
type Role string

const (
	RoleUser         Role = "user"
	RoleNutritionist Role = "nutritionist"
	RoleAdmin        Role = "admin"
	RoleSuperAdmin   Role = "super_admin"
)

// IsStaff reports whether the role is entitled to back-office notifications
// (new signups, booked appointments, submitted forms).
func (r Role) IsStaff() bool {
	switch r {
	case RoleNutritionist, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Principal is the authenticated actor all subscriptions are scoped to.
// A nil/zero principal means logged out: every subscription is torn down.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
