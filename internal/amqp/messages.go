package amqp

import (
	"encoding/json"
	"errors"
	"slices"
	"time"
)

type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// TransactionChangedMessage tells report consumers which owner and years
// are stale. It carries no amounts; consumers read the ledger themselves.
type TransactionChangedMessage struct {
	OwnerID       string    `json:"ownerId"`
	TransactionID string    `json:"transactionId"`
	Operation     Operation `json:"operation"`
	Years         []int     `json:"years"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionChangedMessage deduplicates and sorts years.
func NewTransactionChangedMessage(ownerID, txnID string, op Operation, years ...int) *TransactionChangedMessage {
	ys := slices.Clone(years)
	slices.Sort(ys)
	return &TransactionChangedMessage{
		OwnerID:       ownerID,
		TransactionID: txnID,
		Operation:     op,
		Years:         slices.Compact(ys),
		Timestamp:     time.Now(),
	}
}

func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangedMessageFromJSON decodes and validates a message body.
func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("message has no owner id")
	}
	return &msg, nil
}
