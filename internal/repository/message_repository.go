package repository

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository exposes the single query this service needs against the
// platform's message table: the unread count feeding badge reconciliation.
type MessageRepository interface {
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}
