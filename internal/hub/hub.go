package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"
)

// recentCap bounds the in-memory ring of recently delivered notifications.
const recentCap = 50

// ErrNotStarted is returned by operations that need a signed-in principal.
var ErrNotStarted = errors.New("notification hub not started")

// Config collects the hub's collaborators.
type Config struct {
	Source        changefeed.Source
	Sink          ClientSink
	Push          Pusher
	Notifications repository.NotificationRepository
	Messages      repository.MessageRepository
	Catalogue     []ChannelSpec
	Logger        logger.ILogger
}

// Hub is the realtime notification core: it owns the change-feed
// subscriptions for the current principal, turns qualifying events into
// notifications, fans them out (sound, push, toast, local listeners, badge)
// and keeps the unread count reconciled against Postgres.
type Hub struct {
	manager    *Manager
	pipeline   *Pipeline
	reconciler *Reconciler
	registry   *Registry
	logger     logger.ILogger

	unread atomic.Int64

	mu        sync.Mutex
	started   bool
	principal model.Principal
	recent    []Event
}

func New(cfg Config) *Hub {
	if cfg.Catalogue == nil {
		cfg.Catalogue = DefaultCatalogue()
	}

	h := &Hub{
		registry: NewRegistry(),
		logger:   cfg.Logger,
	}
	h.pipeline = NewPipeline(cfg.Sink, cfg.Push, h.registry, cfg.Notifications, &h.unread, cfg.Logger)
	h.reconciler = NewReconciler(cfg.Messages, cfg.Notifications, &h.unread, cfg.Sink, cfg.Logger)
	h.manager = NewManager(cfg.Source, cfg.Catalogue, h.handleChange, cfg.Logger)
	return h
}

// Start binds the hub to a principal: tears down any previous subscriptions,
// opens the catalogue for the new principal and runs an initial
// reconciliation. Safe to call again on principal change.
func (h *Hub) Start(ctx context.Context, principal model.Principal) error {
	if err := h.manager.Start(ctx, principal); err != nil {
		return err
	}

	h.mu.Lock()
	h.started = true
	h.principal = principal
	h.recent = nil
	h.mu.Unlock()

	// Initial reconcile is best-effort; a failed query leaves the count at
	// its previous value per the reconciler contract.
	if err := h.reconciler.Reconcile(ctx, principal); err != nil {
		h.logger.Warn("NotificationHub", "Initial reconciliation failed", map[string]interface{}{
			"user_id": principal.ID,
			"error":   err.Error(),
		})
	}
	return nil
}

// Stop tears every subscription down. Idempotent.
func (h *Hub) Stop() {
	h.manager.Stop()

	h.mu.Lock()
	h.started = false
	h.mu.Unlock()
}

// handleChange is the manager's delivery hook: classify, then run the
// pipeline once per resulting notification.
func (h *Hub) handleChange(ctx context.Context, principal model.Principal, ev events.ChangeEvent) {
	for _, e := range Classify(principal, ev) {
		h.pipeline.Deliver(ctx, principal, e)
		h.remember(e)
	}
}

func (h *Hub) remember(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, e)
	if len(h.recent) > recentCap {
		h.recent = h.recent[len(h.recent)-recentCap:]
	}
}

// UnreadCount returns the current badge value: optimistic between
// reconciliations, authoritative right after one.
func (h *Hub) UnreadCount() int64 {
	return h.unread.Load()
}

// Recent returns the most recently delivered notifications, newest last.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, len(h.recent))
	copy(out, h.recent)
	return out
}

// Notify pushes a manually constructed notification through the full
// delivery pipeline for the current principal.
func (h *Hub) Notify(ctx context.Context, title, description string, category model.Category) error {
	h.mu.Lock()
	started, principal := h.started, h.principal
	h.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	e := Event{
		Title:       title,
		Description: description,
		Category:    category,
		URL:         ResolveURL(category),
		At:          time.Now(),
	}
	h.pipeline.Deliver(ctx, principal, e)
	h.remember(e)
	return nil
}

// Reconcile recomputes the unread count for the current principal.
func (h *Hub) Reconcile(ctx context.Context) error {
	h.mu.Lock()
	started, principal := h.started, h.principal
	h.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	return h.reconciler.Reconcile(ctx, principal)
}

// Subscribe registers a local listener for delivered notifications.
func (h *Hub) Subscribe(buffer int) (string, <-chan Event) {
	return h.registry.Subscribe(buffer)
}

// Unsubscribe removes a local listener.
func (h *Hub) Unsubscribe(id string) {
	h.registry.Unsubscribe(id)
}

// ActiveChannels exposes the live subscription keys, mainly for diagnostics.
func (h *Hub) ActiveChannels() []string {
	return h.manager.ActiveKeys()
}
