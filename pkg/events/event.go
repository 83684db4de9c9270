package events

import "time"

// Kind identifies the class of a change-feed event.
type Kind string

const (
	KindInsert    Kind = "INSERT"
	KindUpdate    Kind = "UPDATE"
	KindDelete    Kind = "DELETE"
	KindBroadcast Kind = "BROADCAST"
)

// Row is a loosely typed table row as carried on the change feed.
// Values come from JSON, so numbers arrive as float64.
type Row map[string]interface{}

// Str returns the value under key as a string, or "" when absent.
func (r Row) Str(key string) string {
	if r == nil {
		return ""
	}
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the value under key as an int, or 0 when absent.
func (r Row) Int(key string) int {
	if r == nil {
		return 0
	}
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Has reports whether the row carries a value for key.
func (r Row) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r[key]
	return ok
}

// ChangeEvent is a single row-level change or broadcast message pushed
// from the platform's change feed.
//
// For row events Table, Old and New are populated (Old only on UPDATE/DELETE,
// New only on INSERT/UPDATE). For broadcasts Channel and Event carry the
// channel name and ad-hoc event name, and Payload the message body.
type ChangeEvent struct {
	Kind       Kind      `json:"kind"`
	Table      string    `json:"table,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	Event      string    `json:"event,omitempty"`
	Old        Row       `json:"old,omitempty"`
	New        Row       `json:"new,omitempty"`
	Payload    Row       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// IsBroadcast reports whether the event is an ad-hoc channel message rather
// than a row-level change.
func (e ChangeEvent) IsBroadcast() bool {
	return e.Kind == KindBroadcast
}
