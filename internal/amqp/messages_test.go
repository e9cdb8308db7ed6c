package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessage(t *testing.T) {
	before := time.Now()
	msg := NewChangeMessage(EntityTransaction, ActionCreated, "tx-123")
	after := time.Now()

	if msg.Entity != EntityTransaction {
		t.Errorf("Entity = %s, want %s", msg.Entity, EntityTransaction)
	}
	if msg.Action != ActionCreated {
		t.Errorf("Action = %s, want %s", msg.Action, ActionCreated)
	}
	if msg.ID != "tx-123" {
		t.Errorf("ID = %s, want tx-123", msg.ID)
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(after) {
		t.Error("Timestamp should be stamped at creation time")
	}
}

func TestChangeMessage_RoundTrip(t *testing.T) {
	msg := NewChangeMessage(EntityBudget, ActionUpdated, "b-9")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}
	if got.Entity != msg.Entity || got.Action != msg.Action || got.ID != msg.ID {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
}

func TestChangeMessageFromJSON_Malformed(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("ChangeMessageFromJSON() should fail on malformed payload")
	}
}
