package dto

// BroadcastRequest is the staff system-broadcast body.
type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

// TriggerChangeRequest simulates a change-feed event end to end. Exactly the
// shape the CDC bridge emits; dev/debug only.
type TriggerChangeRequest struct {
	Kind    string                 `json:"kind" validate:"required,oneof=INSERT UPDATE DELETE BROADCAST"`
	Table   string                 `json:"table" validate:"required_without=Channel"`
	Channel string                 `json:"channel" validate:"required_without=Table"`
	Event   string                 `json:"event,omitempty"`
	Old     map[string]interface{} `json:"old,omitempty"`
	New     map[string]interface{} `json:"new,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
