package amqp

import (
	"encoding/json"
	"time"
)

// Entities and actions carried by ledger events.
const (
	EntityTransaction = "transaction"
	EntityWallet      = "wallet"
	EntityCategory    = "category"
	EntityRollover    = "rollover"
	EntityFuelLog     = "fuel_log"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEventMessage announces that a ledger entity changed. It is a pure
// refresh-on-notify signal: consumers re-read the store, they never apply
// state from the message itself.
type LedgerEventMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event for an entity change.
func NewLedgerEventMessage(entity, action string, id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
