package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userKeys = []string{
	"appointments",
	"form-assignments",
	"meal-plans",
	"messages",
	"private-calls",
	"private-notifications",
	"progress",
}

var staffKeys = []string{
	"appointments",
	"form-assignments",
	"meal-plans",
	"messages",
	"private-calls",
	"private-notifications",
	"progress",
	"staff-appointments",
	"staff-form-submissions",
	"staff-signups",
}

type deliveryRecorder struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (d *deliveryRecorder) deliver(_ context.Context, _ model.Principal, ev events.ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *deliveryRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func (d *deliveryRecorder) first() events.ChangeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events[0]
}

func TestManagerOpensEntitledChannels(t *testing.T) {
	source := changefeed.NewMemorySource()
	defer source.Close()

	rec := &deliveryRecorder{}
	m := NewManager(source, DefaultCatalogue(), rec.deliver, testLogger())

	require.NoError(t, m.Start(context.Background(), clientPrincipal))
	assert.Equal(t, userKeys, m.ActiveKeys())
	assert.True(t, m.Active())

	m.Stop()
	assert.Empty(t, m.ActiveKeys())
	assert.False(t, m.Active())
}

func TestManagerStaffGetsExtraChannels(t *testing.T) {
	source := changefeed.NewMemorySource()
	defer source.Close()

	m := NewManager(source, DefaultCatalogue(), (&deliveryRecorder{}).deliver, testLogger())

	require.NoError(t, m.Start(context.Background(), staffPrincipal))
	defer m.Stop()

	assert.Equal(t, staffKeys, m.ActiveKeys())
}

func TestManagerPrincipalSwitchIsFullRebuild(t *testing.T) {
	source := changefeed.NewMemorySource()
	defer source.Close()

	rec := &deliveryRecorder{}
	m := NewManager(source, DefaultCatalogue(), rec.deliver, testLogger())

	require.NoError(t, m.Start(context.Background(), clientPrincipal))
	require.NoError(t, m.Start(context.Background(), staffPrincipal))
	defer m.Stop()

	// Exactly the new principal's catalogue, no leftovers and no doubles.
	assert.Equal(t, staffKeys, m.ActiveKeys())

	// An event addressed to the old principal no longer reaches delivery.
	require.NoError(t, source.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{"recipient_id": clientID.String(), "body": "stale"},
	}))
	// One addressed to the new principal does.
	require.NoError(t, source.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{"recipient_id": staffID.String(), "body": "fresh"},
	}))

	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "fresh", rec.first().New.Str("body"))
}

func TestManagerStopDropsInFlightEvents(t *testing.T) {
	source := changefeed.NewMemorySource()
	defer source.Close()

	rec := &deliveryRecorder{}
	m := NewManager(source, DefaultCatalogue(), rec.deliver, testLogger())

	require.NoError(t, m.Start(context.Background(), clientPrincipal))
	m.Stop()
	m.Stop() // idempotent

	require.NoError(t, source.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindInsert,
		Table: "messages",
		New:   events.Row{"recipient_id": clientID.String(), "body": "late"},
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestManagerKindFiltering(t *testing.T) {
	source := changefeed.NewMemorySource()
	defer source.Close()

	rec := &deliveryRecorder{}
	m := NewManager(source, DefaultCatalogue(), rec.deliver, testLogger())

	require.NoError(t, m.Start(context.Background(), clientPrincipal))
	defer m.Stop()

	// messages is INSERT-only; an UPDATE never reaches delivery.
	require.NoError(t, source.PublishChange(context.Background(), events.ChangeEvent{
		Kind:  events.KindUpdate,
		Table: "messages",
		New:   events.Row{"recipient_id": clientID.String(), "body": "edited"},
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
