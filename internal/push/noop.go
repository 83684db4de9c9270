package push

import (
	"context"

	"github.com/google/uuid"
)

// NoopProvider terminates the chain: always available, delivers nothing.
// Matches the observed behavior when notification permission was never
// granted — the event silently skips the OS channel.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (p *NoopProvider) Name() string    { return "noop" }
func (p *NoopProvider) Available() bool { return true }

func (p *NoopProvider) Send(ctx context.Context, userID uuid.UUID, payload *Payload) error {
	return nil
}
