package repository

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}
