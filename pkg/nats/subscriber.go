package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber attaches ephemeral JetStream consumers to the change stream and
// implements changefeed.Source. Consumers start at new messages only: a
// notification subscription has no interest in history, and a channel that
// fails to attach simply delivers nothing.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

var (
	_ changefeed.Source    = (*Subscriber)(nil)
	_ changefeed.Publisher = (*Publisher)(nil)
)

func NewSubscriber(url string) (*Subscriber, error) {
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

	return &Subscriber{nc: nc, js: js}, nil
}

func (s *Subscriber) SubscribeChanges(ctx context.Context, table string, kinds []events.Kind, filter changefeed.Filter, handler changefeed.Handler) (changefeed.Subscription, error) {
	accept := func(ev events.ChangeEvent) bool {
		for _, k := range kinds {
			if ev.Kind == k {
				return filter.Matches(ev)
			}
		}
		return false
	}
	return s.consume(ctx, "cdc."+table, accept, handler)
}

func (s *Subscriber) SubscribeBroadcast(ctx context.Context, channel, event string, handler changefeed.Handler) (changefeed.Subscription, error) {
	accept := func(ev events.ChangeEvent) bool {
		return ev.Event == event
	}
	return s.consume(ctx, "broadcast."+channel, accept, handler)
}

func (s *Subscriber) consume(ctx context.Context, subject string, accept func(events.ChangeEvent) bool, handler changefeed.Handler) (changefeed.Subscription, error) {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for %s: %w", subject, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var ev events.ChangeEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			log.Printf("Error unmarshalling change event on %s: %v", subject, err)
			msg.Ack()
			return
		}
		if accept(ev) {
			handler(ctx, ev)
		}
		msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming %s: %w", subject, err)
	}

	return &natsSubscription{cc: cc}, nil
}

// Close closes the connection.
func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

type natsSubscription struct {
	once sync.Once
	cc   jetstream.ConsumeContext
}

func (n *natsSubscription) Close() error {
	n.once.Do(n.cc.Stop)
	return nil
}
