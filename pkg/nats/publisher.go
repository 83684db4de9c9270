package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// streamName holds every change-feed subject: row changes under "cdc.<table>"
// and ad-hoc broadcasts under "broadcast.<channel>".
const streamName = "CHANGES"

// Publisher emits change-feed events to NATS JetStream. The platform's CDC
// bridge is the main producer; this service keeps a publisher for the staff
// broadcast endpoint and the debug trigger.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher connects to NATS and ensures the change stream exists.
func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"cdc.>", "broadcast.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream '%s': %v", streamName, err)
		// Don't fail hard here, maybe it already exists or NATS isn't ready
	}

	return &Publisher{nc: nc, js: js}, nil
}

// PublishChange sends a row-level change event to its table subject.
func (p *Publisher) PublishChange(ctx context.Context, ev events.ChangeEvent) error {
	if ev.Table == "" {
		return fmt.Errorf("change event has no table")
	}
	return p.publish(ctx, "cdc."+ev.Table, ev)
}

// PublishBroadcast sends an ad-hoc message to its channel subject.
func (p *Publisher) PublishBroadcast(ctx context.Context, ev events.ChangeEvent) error {
	if ev.Channel == "" {
		return fmt.Errorf("broadcast event has no channel")
	}
	ev.Kind = events.KindBroadcast
	return p.publish(ctx, "broadcast."+ev.Channel, ev)
}

func (p *Publisher) publish(ctx context.Context, subject string, ev events.ChangeEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishPush hands an OS-notification payload to the per-user push subject
// consumed by the edge delivery agents. Core NATS, not JetStream: push is
// fire-and-forget, an offline device has no use for a replayed notification.
func (p *Publisher) PublishPush(userID string, payload []byte) error {
	if err := p.nc.Publish("push."+userID, payload); err != nil {
		return fmt.Errorf("failed to publish push for user %s: %w", userID, err)
	}
	return nil
}

// Connected reports whether the underlying connection is usable.
func (p *Publisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
