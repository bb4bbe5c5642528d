package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerEventMessage(t *testing.T) {
	before := time.Now()
	msg := NewLedgerEventMessage(EntityTransaction, ActionCreated, 42)
	if msg.Entity != EntityTransaction || msg.Action != ActionCreated || msg.ID != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.Before(before) {
		t.Errorf("timestamp not set: %v", msg.Timestamp)
	}
}

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(EntityRollover, ActionCreated, 0)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := LedgerEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Entity != msg.Entity || got.Action != msg.Action || got.ID != msg.ID {
		t.Errorf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestLedgerEventMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
