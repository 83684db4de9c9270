package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (c *collector) handle(_ context.Context, ev events.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestMemorySourceFiltersByColumn(t *testing.T) {
	s := NewMemorySource()
	defer s.Close()

	col := &collector{}
	sub, err := s.SubscribeChanges(context.Background(), "messages",
		[]events.Kind{events.KindInsert},
		Filter{Column: "recipient_id", Value: "alice"},
		col.handle)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, s.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{"recipient_id": "bob"},
	}))
	require.NoError(t, s.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{"recipient_id": "alice"},
	}))

	require.Eventually(t, func() bool { return col.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, col.count(), "bob's message must not leak through")
}

func TestMemorySourceFiltersByKind(t *testing.T) {
	s := NewMemorySource()
	defer s.Close()

	col := &collector{}
	sub, err := s.SubscribeChanges(context.Background(), "appointments",
		[]events.Kind{events.KindUpdate, events.KindDelete},
		Filter{},
		col.handle)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, s.PublishChange(context.Background(), events.ChangeEvent{Kind: events.KindInsert, Table: "appointments"}))
	require.NoError(t, s.PublishChange(context.Background(), events.ChangeEvent{Kind: events.KindDelete, Table: "appointments", Old: events.Row{}}))

	require.Eventually(t, func() bool { return col.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, col.count())
}

func TestMemorySourceBroadcastByEventName(t *testing.T) {
	s := NewMemorySource()
	defer s.Close()

	col := &collector{}
	sub, err := s.SubscribeBroadcast(context.Background(), "user:alice", "incoming_call", col.handle)
	require.NoError(t, err)
	defer sub.Close()

	// Same channel, different event name: filtered out.
	require.NoError(t, s.PublishBroadcast(context.Background(), events.ChangeEvent{
		Channel: "user:alice",
		Event:   "notification",
		Payload: events.Row{"title": "x"},
	}))
	require.NoError(t, s.PublishBroadcast(context.Background(), events.ChangeEvent{
		Channel: "user:alice",
		Event:   "incoming_call",
		Payload: events.Row{"caller_name": "Dr. Lee"},
	}))

	require.Eventually(t, func() bool { return col.count() == 1 }, time.Second, 5*time.Millisecond)

	col.mu.Lock()
	defer col.mu.Unlock()
	assert.Equal(t, events.KindBroadcast, col.events[0].Kind)
	assert.Equal(t, "incoming_call", col.events[0].Event)
}

func TestMemorySourceSubscriptionClose(t *testing.T) {
	s := NewMemorySource()
	defer s.Close()

	col := &collector{}
	sub, err := s.SubscribeChanges(context.Background(), "messages",
		[]events.Kind{events.KindInsert}, Filter{}, col.handle)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent

	require.NoError(t, s.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{},
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, col.count())
}

func TestMemorySourcePublishValidation(t *testing.T) {
	s := NewMemorySource()
	defer s.Close()

	assert.Error(t, s.PublishChange(context.Background(), events.ChangeEvent{Kind: events.KindInsert}))
	assert.Error(t, s.PublishBroadcast(context.Background(), events.ChangeEvent{Event: "notification"}))
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  events.ChangeEvent
		want   bool
	}{
		{
			name:   "zero filter matches everything",
			filter: Filter{},
			event:  events.ChangeEvent{Kind: events.KindInsert},
			want:   true,
		},
		{
			name:   "matches on new row",
			filter: Filter{Column: "user_id", Value: "u1"},
			event:  events.ChangeEvent{Kind: events.KindInsert, New: events.Row{"user_id": "u1"}},
			want:   true,
		},
		{
			name:   "mismatch on new row",
			filter: Filter{Column: "user_id", Value: "u1"},
			event:  events.ChangeEvent{Kind: events.KindInsert, New: events.Row{"user_id": "u2"}},
			want:   false,
		},
		{
			name:   "delete matches on old row",
			filter: Filter{Column: "client_id", Value: "u1"},
			event:  events.ChangeEvent{Kind: events.KindDelete, Old: events.Row{"client_id": "u1"}},
			want:   true,
		},
		{
			name:   "absent column does not match",
			filter: Filter{Column: "user_id", Value: "u1"},
			event:  events.ChangeEvent{Kind: events.KindInsert, New: events.Row{"other": "u1"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.event))
		})
	}
}
