package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEvent announces that a recurring rule occurrence was
// effectuated into a real transaction. Consumers that cache forecasts use
// it to invalidate; the payload carries identifiers only, the transaction
// itself lives in storage.
type TransactionEvent struct {
	TransactionID int64     `json:"transaction_id"`
	RuleID        int64     `json:"rule_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for one effectuated transaction.
func NewTransactionEvent(transactionID, ruleID int64, year, month int) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		RuleID:        ruleID,
		Year:          year,
		Month:         month,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
