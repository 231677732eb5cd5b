package realtime

import (
	"encoding/json"
	"time"
)

const TypeEntityChanged = "entity.changed"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event announces that a record of entity changed on the server.
type Event struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func EntityChanged(entity, id, action string) Event {
	return Event{
		Type:      TypeEntityChanged,
		Entity:    entity,
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
