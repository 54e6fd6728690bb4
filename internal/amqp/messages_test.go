package amqp

import (
	"testing"
	"time"
)

func TestNewUpsertMessage(t *testing.T) {
	msg := NewUpsertMessage("3f1c9a6e")

	if msg.ID != "3f1c9a6e" {
		t.Errorf("ID = %q, want %q", msg.ID, "3f1c9a6e")
	}
	if msg.Op != OpUpsert {
		t.Errorf("Op = %q, want %q", msg.Op, OpUpsert)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewDeleteMessage(t *testing.T) {
	msg := NewDeleteMessage("3f1c9a6e")

	if msg.Op != OpDelete {
		t.Errorf("Op = %q, want %q", msg.Op, OpDelete)
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSyncMessage_JSONRoundTrip(t *testing.T) {
	timestamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &SyncMessage{
		ID:        "3f1c9a6e",
		Op:        OpDelete,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := SyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SyncMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %q, want %q", parsed.ID, msg.ID)
	}
	if parsed.Op != msg.Op {
		t.Errorf("Parsed Op = %q, want %q", parsed.Op, msg.Op)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestSyncMessageFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"id": 42`},
		{"missing id", `{"op": "upsert"}`},
		{"unknown op", `{"id": "3f1c9a6e", "op": "rename"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SyncMessageFromJSON([]byte(tt.data)); err == nil {
				t.Error("SyncMessageFromJSON() should fail")
			}
		})
	}
}
