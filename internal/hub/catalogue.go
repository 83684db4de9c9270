package hub

import (
	"fmt"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"
)

// ChannelSpec is one entry of the declarative subscription catalogue. Adding
// a notification kind means adding an entry here (plus its classifier rule),
// not new wiring code.
//
// Exactly one of Table or Broadcast is set. Table entries subscribe to a
// row-change stream with FilterColumn rendered against the principal id;
// Broadcast entries subscribe to a named channel, with "%s" in the channel
// name replaced by the principal id.
type ChannelSpec struct {
	Key            string
	Table          string
	Kinds          []events.Kind
	FilterColumn   string
	Broadcast      string
	BroadcastEvent string
	StaffOnly      bool
}

// Entitled reports whether the principal may open this channel.
func (s ChannelSpec) Entitled(principal model.Principal) bool {
	return !s.StaffOnly || principal.Role.IsStaff()
}

func (s ChannelSpec) filter(principal model.Principal) changefeed.Filter {
	if s.FilterColumn == "" {
		return changefeed.Filter{}
	}
	return changefeed.Filter{Column: s.FilterColumn, Value: principal.ID.String()}
}

func (s ChannelSpec) channel(principal model.Principal) string {
	return fmt.Sprintf(s.Broadcast, principal.ID)
}

// DefaultCatalogue is the fixed set of channels the hub maintains for a
// signed-in principal. Staff-only entries are skipped for regular users.
func DefaultCatalogue() []ChannelSpec {
	return []ChannelSpec{
		{Key: "messages", Table: "messages", Kinds: []events.Kind{events.KindInsert}, FilterColumn: "recipient_id"},
		{Key: "appointments", Table: "appointments", Kinds: []events.Kind{events.KindInsert, events.KindUpdate, events.KindDelete}, FilterColumn: "client_id"},
		{Key: "progress", Table: "user_progress", Kinds: []events.Kind{events.KindUpdate}, FilterColumn: "user_id"},
		{Key: "form-assignments", Table: "form_assignments", Kinds: []events.Kind{events.KindInsert}, FilterColumn: "user_id"},
		{Key: "meal-plans", Table: "meal_plans", Kinds: []events.Kind{events.KindInsert}, FilterColumn: "user_id"},
		{Key: "staff-appointments", Table: "appointments", Kinds: []events.Kind{events.KindInsert}, FilterColumn: "nutritionist_id", StaffOnly: true},
		{Key: "staff-signups", Table: "profiles", Kinds: []events.Kind{events.KindInsert}, StaffOnly: true},
		{Key: "staff-form-submissions", Table: "form_submissions", Kinds: []events.Kind{events.KindInsert}, StaffOnly: true},
		{Key: "private-notifications", Broadcast: "user:%s", BroadcastEvent: "notification"},
		{Key: "private-calls", Broadcast: "user:%s", BroadcastEvent: "incoming_call"},
	}
}
