package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"

	"github.com/google/uuid"
)

// NotificationRepository is an in-memory stand-in for the Postgres
// implementation, used by unit tests and local development.
type NotificationRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*model.Notification

	// Err, when set, is returned by every method. Lets tests exercise the
	// reconciler's fail-open behavior.
	Err error
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		rows: make(map[uuid.UUID]*model.Notification),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	cp := *notification
	r.rows[notification.ID] = &cp
	return nil
}

func (r *NotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	if r.Err != nil {
		return nil, 0, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []model.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			all = append(all, *n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.Notification{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.rows[notificationID]
	if !ok {
		return errors.New("notification not found")
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}
