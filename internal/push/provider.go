package push

import (
	"context"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/hub"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"

	"github.com/google/uuid"
)

// Payload is the provider-facing notification data, decoupled from the
// hub's internal event type.
type Payload struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Category string    `json:"category"`
	URL      string    `json:"url"`
	At       time.Time `json:"at"`
}

// Provider is one OS-notification delivery backend. Implementations must be
// safe for concurrent use.
type Provider interface {
	Name() string
	Available() bool
	Send(ctx context.Context, userID uuid.UUID, payload *Payload) error
}

// Chain ranks providers richest first, probes availability once at
// construction and caches the winner. Exactly one provider handles each
// event; when none is available the chain silently delivers nothing.
type Chain struct {
	active Provider
	logger logger.ILogger
}

var _ hub.Pusher = (*Chain)(nil)

func NewChain(log logger.ILogger, providers ...Provider) *Chain {
	c := &Chain{logger: log}
	for _, p := range providers {
		if p.Available() {
			c.active = p
			break
		}
	}
	if c.active != nil {
		log.Info("PushChain", "Push provider selected", map[string]interface{}{"provider": c.active.Name()})
	} else {
		log.Info("PushChain", "No push provider available, OS notifications disabled", nil)
	}
	return c
}

// Push implements hub.Pusher.
func (c *Chain) Push(ctx context.Context, userID uuid.UUID, e hub.Event) error {
	if c.active == nil {
		return nil
	}
	return c.active.Send(ctx, userID, &Payload{
		Title:    e.Title,
		Body:     e.Description,
		Category: string(e.Category),
		URL:      e.URL,
		At:       e.At,
	})
}

// ActiveProvider returns the cached provider name, or "" when none.
func (c *Chain) ActiveProvider() string {
	if c.active == nil {
		return ""
	}
	return c.active.Name()
}
