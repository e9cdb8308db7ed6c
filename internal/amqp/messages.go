package amqp

import (
	"encoding/json"
	"time"
)

// Entities and actions carried by change messages.
const (
	EntityAccount     = "account"
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityBudget      = "budget"
	EntityImport      = "import"

	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionCommitted = "committed"
)

// ChangeMessage notifies consumers that an entity changed. It carries only
// the identity of the change; consumers fetch fresh snapshots themselves,
// so the aggregation layer never holds a subscription.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change message stamped with the current time.
func NewChangeMessage(entity, action, id string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
