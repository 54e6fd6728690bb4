package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message operations understood by the sync worker.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// SyncMessage carries only the transaction id and the requested operation.
// The worker fetches current row data from the database, so a message that
// is delivered late or twice still converges on the right sheet state.
type SyncMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUpsertMessage(id string) *SyncMessage {
	return &SyncMessage{ID: id, Op: OpUpsert, Timestamp: time.Now()}
}

func NewDeleteMessage(id string) *SyncMessage {
	return &SyncMessage{ID: id, Op: OpDelete, Timestamp: time.Now()}
}

func (m *SyncMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("sync message missing id")
	}
	if m.Op != OpUpsert && m.Op != OpDelete {
		return fmt.Errorf("sync message has unknown op %q", m.Op)
	}
	return nil
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
