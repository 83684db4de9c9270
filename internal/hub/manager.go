package hub

import (
	"context"
	"sort"
	"sync"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"
)

type managerState int

const (
	stateIdle managerState = iota
	stateStarting
	stateActive
)

// deliverFunc receives every raw event that cleared a subscription's filter.
type deliverFunc func(ctx context.Context, principal model.Principal, ev events.ChangeEvent)

// Manager owns the live change-feed subscriptions for one principal. At most
// one subscription is open per catalogue key; switching principals is always
// a full teardown followed by a full rebuild, never a partial one.
type Manager struct {
	source    changefeed.Source
	catalogue []ChannelSpec
	deliver   deliverFunc
	logger    logger.ILogger

	mu        sync.Mutex
	state     managerState
	principal model.Principal
	subs      map[string]changefeed.Subscription
	cancel    context.CancelFunc
}

func NewManager(source changefeed.Source, catalogue []ChannelSpec, deliver deliverFunc, log logger.ILogger) *Manager {
	return &Manager{
		source:    source,
		catalogue: catalogue,
		deliver:   deliver,
		logger:    log,
		subs:      make(map[string]changefeed.Subscription),
	}
}

// Start opens every catalogue channel the principal is entitled to. If the
// manager is already running it fully stops first, so a principal change
// never leaves a stale subscription behind. A channel that fails to attach
// is logged and skipped: a dead channel delivers nothing, by contract there
// is no retry.
func (m *Manager) Start(ctx context.Context, principal model.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.state = stateStarting
	m.principal = principal

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, spec := range m.catalogue {
		if !spec.Entitled(principal) {
			continue
		}

		handler := m.handlerFor(runCtx, principal)

		var (
			sub changefeed.Subscription
			err error
		)
		if spec.Broadcast != "" {
			sub, err = m.source.SubscribeBroadcast(runCtx, spec.channel(principal), spec.BroadcastEvent, handler)
		} else {
			sub, err = m.source.SubscribeChanges(runCtx, spec.Table, spec.Kinds, spec.filter(principal), handler)
		}
		if err != nil {
			m.logger.Warn("SubscriptionManager", "Channel failed to attach, continuing without it", map[string]interface{}{
				"channel": spec.Key,
				"error":   err.Error(),
			})
			continue
		}
		m.subs[spec.Key] = sub
	}

	m.state = stateActive
	m.logger.Info("SubscriptionManager", "Subscriptions started", map[string]interface{}{
		"user_id":  principal.ID,
		"role":     principal.Role,
		"channels": len(m.subs),
	})
	return nil
}

// handlerFor wraps deliver so that events classified after teardown are
// dropped instead of delivered.
func (m *Manager) handlerFor(runCtx context.Context, principal model.Principal) changefeed.Handler {
	return func(_ context.Context, ev events.ChangeEvent) {
		if runCtx.Err() != nil {
			return
		}
		m.deliver(runCtx, principal, ev)
	}
}

// Stop closes every open subscription. Idempotent; safe when nothing is open.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for key, sub := range m.subs {
		if err := sub.Close(); err != nil {
			m.logger.Warn("SubscriptionManager", "Failed to close subscription", map[string]interface{}{
				"channel": key,
				"error":   err.Error(),
			})
		}
		delete(m.subs, key)
	}
	m.state = stateIdle
}

// ActiveKeys returns the catalogue keys with a live subscription, sorted.
func (m *Manager) ActiveKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.subs))
	for key := range m.subs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Active reports whether the manager currently holds subscriptions.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateActive
}
