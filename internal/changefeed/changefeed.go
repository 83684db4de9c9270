package changefeed

import (
	"context"

	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"
)

// Filter is a server-side equality predicate on a row column
// ("recipient_id = <principal id>"). The zero value matches every row.
type Filter struct {
	Column string
	Value  string
}

// Matches reports whether the event's row satisfies the filter. UPDATE and
// INSERT are matched on the new row; DELETE only carries the old one.
func (f Filter) Matches(ev events.ChangeEvent) bool {
	if f.Column == "" {
		return true
	}
	if ev.New.Has(f.Column) {
		return ev.New.Str(f.Column) == f.Value
	}
	return ev.Old.Str(f.Column) == f.Value
}

// Handler consumes one matching change event. It must not block for long;
// the source delivers events sequentially per subscription.
type Handler func(ctx context.Context, event events.ChangeEvent)

// Subscription is a live attachment to the feed. Close is idempotent.
type Subscription interface {
	Close() error
}

// Source is the platform change feed: row-level change streams per table and
// ad-hoc broadcast channels. Implementations deliver events in the order the
// backend emitted them within one subscription; nothing is guaranteed across
// subscriptions.
type Source interface {
	// SubscribeChanges attaches to a table's change stream, restricted to the
	// given event kinds and row filter.
	SubscribeChanges(ctx context.Context, table string, kinds []events.Kind, filter Filter, handler Handler) (Subscription, error)

	// SubscribeBroadcast attaches to a named channel, restricted to one
	// ad-hoc event name.
	SubscribeBroadcast(ctx context.Context, channel, event string, handler Handler) (Subscription, error)
}

// Publisher is the producing side of the feed, used by the staff broadcast
// endpoint, the debug trigger and the seed tooling. The platform's CDC
// bridge is the main producer in production.
type Publisher interface {
	PublishChange(ctx context.Context, ev events.ChangeEvent) error
	PublishBroadcast(ctx context.Context, ev events.ChangeEvent) error
}

func kindMatches(kinds []events.Kind, k events.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
