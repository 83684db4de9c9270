package hub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ToastDuration is the auto-dismiss hint carried on every toast payload.
const ToastDuration = 5 * time.Second

// soundThrottleWindow caps the chime rate per user so bursts of events do
// not stack sound cues.
const soundThrottleWindow = 3 * time.Second

// ClientSink pushes UI signals to a user's connected clients. Implemented by
// the websocket hub; every method is best-effort and must not block.
type ClientSink interface {
	Toast(userID uuid.UUID, e Event, duration time.Duration)
	Sound(userID uuid.UUID, category model.Category)
	Badge(userID uuid.UUID, count int64)
}

// Pusher delivers an OS-level notification through whichever push backend is
// available. Implementations own the fallback chain; the pipeline only sees
// one outcome per event.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, e Event) error
}

// Pipeline runs the fixed delivery sequence for a single notification:
// sound, OS push, toast, local fan-out, unread increment + badge. Steps are
// independent; a failing step never blocks the ones after it. Deliver is
// reentrant, the unread counter is the only shared state and it is atomic.
type Pipeline struct {
	sink     ClientSink
	push     Pusher
	registry *Registry
	history  repository.NotificationRepository
	unread   *atomic.Int64
	throttle *cache.Cache
	logger   logger.ILogger
}

func NewPipeline(sink ClientSink, push Pusher, registry *Registry, history repository.NotificationRepository, unread *atomic.Int64, log logger.ILogger) *Pipeline {
	return &Pipeline{
		sink:     sink,
		push:     push,
		registry: registry,
		history:  history,
		unread:   unread,
		throttle: cache.New(soundThrottleWindow, time.Minute),
		logger:   log,
	}
}

// Deliver pushes one notification through every channel in order.
func (p *Pipeline) Deliver(ctx context.Context, principal model.Principal, e Event) {
	// 1. Sound cue, throttled per user. cache.Add fails while a previous
	// entry is still live, which is exactly the throttle window.
	if err := p.throttle.Add(principal.ID.String(), struct{}{}, cache.DefaultExpiration); err == nil {
		p.sink.Sound(principal.ID, e.Category)
	}

	// 2. OS-level push. The chain resolves rich -> basic -> nothing.
	if err := p.push.Push(ctx, principal.ID, e); err != nil {
		p.logger.Warn("DeliveryPipeline", "Push delivery failed", map[string]interface{}{
			"user_id": principal.ID,
			"title":   e.Title,
			"error":   err.Error(),
		})
	}

	// 3. In-app toast, the one channel with no permission dependency.
	p.sink.Toast(principal.ID, e, ToastDuration)

	// 4. Local fan-out.
	p.registry.Emit(e)

	// Persist the history row so reconciliation and the notification center
	// see what was delivered. Failure degrades to an ephemeral notification.
	if err := p.history.Create(ctx, &model.Notification{
		UserID:      principal.ID,
		Category:    e.Category,
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		CreatedAt:   e.At,
	}); err != nil {
		p.logger.Error("DeliveryPipeline", "Failed to persist notification", map[string]interface{}{
			"user_id": principal.ID,
			"title":   e.Title,
			"error":   err.Error(),
		})
	}

	// 5. Optimistic unread bump + badge. Reconciliation overwrites this
	// later; the increment is a low-latency approximation, never truth.
	count := p.unread.Add(1)
	p.sink.Badge(principal.ID, count)
}
