package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionCreated Action = "entry.created"
	ActionUpdated Action = "entry.updated"
	ActionDeleted Action = "entry.deleted"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// EntryEvent announces a change to one entry. Consumers load the current
// state of the entry from the store; the event carries only its id.
type EntryEvent struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEvent(id string, action Action) *EntryEvent {
	return &EntryEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryEventFromJSON decodes and validates an event body.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("entry event without id")
	}
	if !msg.Action.IsValid() {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
