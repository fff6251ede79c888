package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionExportMessage(t *testing.T) {
	msg := NewTransactionExportMessage("tx-123", "alice")

	if msg.ID != "tx-123" {
		t.Errorf("ID = %q, want tx-123", msg.ID)
	}
	if msg.OwnerID != "alice" {
		t.Errorf("OwnerID = %q, want alice", msg.OwnerID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionExportMessageJSON(t *testing.T) {
	msg := &TransactionExportMessage{
		ID:        "tx-123",
		OwnerID:   "alice",
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := TransactionExportMessageFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionExportMessageFromJSON: %v", err)
	}

	if parsed.ID != msg.ID || parsed.OwnerID != msg.OwnerID {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionExportMessageInvalidJSON(t *testing.T) {
	if _, err := TransactionExportMessageFromJSON([]byte(`{"id": 42}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
