package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MemorySource is an in-process change feed built on Watermill's gochannel
// pub/sub. It backs unit tests and single-node local development; production
// deployments use the NATS-backed source instead.
type MemorySource struct {
	pubSub *gochannel.GoChannel

	mu     sync.Mutex
	closed bool
}

var (
	_ Source    = (*MemorySource)(nil)
	_ Publisher = (*MemorySource)(nil)
)

func NewMemorySource() *MemorySource {
	return &MemorySource{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
	}
}

func changeTopic(table string) string      { return "cdc." + table }
func broadcastTopic(channel string) string { return "broadcast." + channel }

// PublishChange emits a row-level change event into the feed.
func (s *MemorySource) PublishChange(_ context.Context, ev events.ChangeEvent) error {
	if ev.Table == "" {
		return fmt.Errorf("change event has no table")
	}
	return s.publish(changeTopic(ev.Table), ev)
}

// PublishBroadcast emits an ad-hoc channel message into the feed.
func (s *MemorySource) PublishBroadcast(_ context.Context, ev events.ChangeEvent) error {
	if ev.Channel == "" {
		return fmt.Errorf("broadcast event has no channel")
	}
	ev.Kind = events.KindBroadcast
	return s.publish(broadcastTopic(ev.Channel), ev)
}

func (s *MemorySource) publish(topic string, ev events.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return s.pubSub.Publish(topic, msg)
}

func (s *MemorySource) SubscribeChanges(ctx context.Context, table string, kinds []events.Kind, filter Filter, handler Handler) (Subscription, error) {
	return s.subscribe(ctx, changeTopic(table), func(ev events.ChangeEvent) bool {
		return kindMatches(kinds, ev.Kind) && filter.Matches(ev)
	}, handler)
}

func (s *MemorySource) SubscribeBroadcast(ctx context.Context, channel, event string, handler Handler) (Subscription, error) {
	return s.subscribe(ctx, broadcastTopic(channel), func(ev events.ChangeEvent) bool {
		return ev.Event == event
	}, handler)
}

func (s *MemorySource) subscribe(ctx context.Context, topic string, accept func(events.ChangeEvent) bool, handler Handler) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	msgs, err := s.pubSub.Subscribe(subCtx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for msg := range msgs {
			var ev events.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				msg.Ack()
				continue
			}
			if accept(ev) {
				handler(subCtx, ev)
			}
			msg.Ack()
		}
	}()

	return &memorySubscription{cancel: cancel}, nil
}

// Close shuts the whole feed down, terminating every subscription.
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.pubSub.Close()
}

type memorySubscription struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (m *memorySubscription) Close() error {
	m.once.Do(m.cancel)
	return nil
}
