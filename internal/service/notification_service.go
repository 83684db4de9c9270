package service

import (
	"context"
	"sync"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/hub"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"

	"github.com/google/uuid"
)

// NotificationService owns one notification hub per connected principal.
// A hub starts when the user's first websocket client attaches and stops
// when the last one detaches; its subscriptions are scoped to that user the
// whole time.
type NotificationService struct {
	source        changefeed.Source
	sink          hub.ClientSink
	push          hub.Pusher
	notifications repository.NotificationRepository
	messages      repository.MessageRepository
	logger        logger.ILogger

	mu   sync.Mutex
	hubs map[uuid.UUID]*hubEntry
}

type hubEntry struct {
	hub       *hub.Hub
	principal model.Principal
	refs      int
}

func NewNotificationService(
	source changefeed.Source,
	sink hub.ClientSink,
	push hub.Pusher,
	notifications repository.NotificationRepository,
	messages repository.MessageRepository,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		source:        source,
		sink:          sink,
		push:          push,
		notifications: notifications,
		messages:      messages,
		logger:        log,
		hubs:          make(map[uuid.UUID]*hubEntry),
	}
}

// Attach registers one client connection for the principal, starting the
// principal's hub if this is the first one. Re-attaching with a changed role
// restarts the hub so the subscription set matches the new role.
func (s *NotificationService) Attach(ctx context.Context, principal model.Principal) (*hub.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.hubs[principal.ID]; ok {
		entry.refs++
		if entry.principal.Role != principal.Role {
			// Role changed since the hub started; rebuild the whole
			// subscription set rather than patching it.
			if err := entry.hub.Start(context.WithoutCancel(ctx), principal); err != nil {
				entry.refs--
				return nil, err
			}
			entry.principal = principal
		}
		return entry.hub, nil
	}

	h := hub.New(hub.Config{
		Source:        s.source,
		Sink:          s.sink,
		Push:          s.push,
		Notifications: s.notifications,
		Messages:      s.messages,
		Logger:        s.logger,
	})
	// The hub outlives the attaching request; its lifetime is bounded by
	// Detach, not by the handshake context.
	if err := h.Start(context.WithoutCancel(ctx), principal); err != nil {
		return nil, err
	}

	s.hubs[principal.ID] = &hubEntry{hub: h, principal: principal, refs: 1}
	s.logger.Info("NotificationService", "Hub started for principal", map[string]interface{}{
		"user_id": principal.ID,
		"role":    principal.Role,
	})
	return h, nil
}

// Detach drops one client connection; the hub stops when none remain.
func (s *NotificationService) Detach(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.hubs[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	entry.hub.Stop()
	delete(s.hubs, userID)
	s.logger.Info("NotificationService", "Hub stopped for principal", map[string]interface{}{"user_id": userID})
}

// HubFor returns the principal's live hub, if any.
func (s *NotificationService) HubFor(userID uuid.UUID) (*hub.Hub, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.hubs[userID]
	if !ok {
		return nil, false
	}
	return entry.hub, true
}

// GetNotifications fetches the notification history for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.notifications.GetByUserID(ctx, userID, limit, offset)
}

// CountUnread returns the authoritative unread total: unread messages plus
// unread notification rows.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	msgCount, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	notifCount, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return msgCount + notifCount, nil
}

// MarkAsRead marks one notification read and resyncs the user's badge.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notifications.MarkAsRead(ctx, notificationID); err != nil {
		return err
	}
	s.reconcileIfAttached(ctx, userID)
	return nil
}

// MarkAllAsRead marks everything read and resyncs the user's badge.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.reconcileIfAttached(ctx, userID)
	return nil
}

// Reconcile recomputes the unread count for an attached principal.
func (s *NotificationService) Reconcile(ctx context.Context, userID uuid.UUID) (int64, error) {
	if h, ok := s.HubFor(userID); ok {
		if err := h.Reconcile(ctx); err != nil {
			return 0, err
		}
		return h.UnreadCount(), nil
	}
	// No live hub; fall back to a direct query.
	return s.CountUnread(ctx, userID)
}

func (s *NotificationService) reconcileIfAttached(ctx context.Context, userID uuid.UUID) {
	h, ok := s.HubFor(userID)
	if !ok {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Reconcile(rctx); err != nil {
		s.logger.Warn("NotificationService", "Badge resync failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
