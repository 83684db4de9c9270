package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MessageRepository is an in-memory unread-message counter used by tests.
type MessageRepository struct {
	mu     sync.RWMutex
	unread map[uuid.UUID]int64

	Err error
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		unread: make(map[uuid.UUID]int64),
	}
}

// SetUnread fixes the unread-message count for a recipient.
func (r *MessageRepository) SetUnread(recipientID uuid.UUID, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unread[recipientID] = count
}

func (r *MessageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unread[recipientID], nil
}
