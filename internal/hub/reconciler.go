package hub

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"
)

// Reconciler recomputes the authoritative unread count from Postgres: unread
// messages plus unread notification rows. The reconciled value always
// overwrites the optimistic in-memory count. On a failed query the previous
// count is left untouched; a stale badge beats a wrongly zeroed one.
type Reconciler struct {
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	unread        *atomic.Int64
	sink          ClientSink
	logger        logger.ILogger
}

func NewReconciler(messages repository.MessageRepository, notifications repository.NotificationRepository, unread *atomic.Int64, sink ClientSink, log logger.ILogger) *Reconciler {
	return &Reconciler{
		messages:      messages,
		notifications: notifications,
		unread:        unread,
		sink:          sink,
		logger:        log,
	}
}

// Reconcile is idempotent and may be called at any time.
func (r *Reconciler) Reconcile(ctx context.Context, principal model.Principal) error {
	msgCount, err := r.messages.CountUnread(ctx, principal.ID)
	if err != nil {
		r.logger.Warn("UnreadReconciler", "Message count query failed, keeping previous count", map[string]interface{}{
			"user_id": principal.ID,
			"error":   err.Error(),
		})
		return fmt.Errorf("count unread messages: %w", err)
	}

	notifCount, err := r.notifications.CountUnread(ctx, principal.ID)
	if err != nil {
		r.logger.Warn("UnreadReconciler", "Notification count query failed, keeping previous count", map[string]interface{}{
			"user_id": principal.ID,
			"error":   err.Error(),
		})
		return fmt.Errorf("count unread notifications: %w", err)
	}

	total := msgCount + notifCount
	if total < 0 {
		total = 0
	}
	r.unread.Store(total)
	r.sink.Badge(principal.ID, total)
	return nil
}
