package amqp

import (
	"encoding/json"
	"time"
)

// TransactionExportMessage tells the export worker that a transaction is
// waiting to be exported. It carries only identifiers; the worker loads
// the full record from the database.
type TransactionExportMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionExportMessage creates an export message for a transaction.
func NewTransactionExportMessage(id, ownerID string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionExportMessageFromJSON decodes a message from JSON bytes.
func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
