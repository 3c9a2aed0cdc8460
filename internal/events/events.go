// Package events publishes ledger changes to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event types.
const (
	TypeDeposit            = "ledger.deposit"
	TypeWithdrawal         = "ledger.withdrawal"
	TypeTransactionDeleted = "ledger.transaction_deleted"
)

// LedgerEvent describes a committed ledger mutation.
type LedgerEvent struct {
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	CategoryID    string    `json:"category_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Validate checks the fields consumers depend on.
func (e LedgerEvent) Validate() error {
	switch e.Type {
	case TypeDeposit, TypeWithdrawal, TypeTransactionDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == "" {
		return fmt.Errorf("event %s has no user_id", e.Type)
	}
	return nil
}

// Decode parses and validates a message body.
func Decode(body []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return LedgerEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}

// Publisher delivers ledger events.
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, LedgerEvent) error { return nil }
