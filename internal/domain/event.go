package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventPaymentSettled   EventType = "pay.payment.settled"
	EventPaymentFailed    EventType = "pay.payment.failed"
	EventPaymentCancelled EventType = "pay.payment.cancelled"
	EventPaymentRefunded  EventType = "pay.payment.refunded"
	EventEntryPosted      EventType = "pay.wallet.entry.posted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePayment AggregateType = "payment"
	AggregateWallet  AggregateType = "wallet"
)

// OutboxDraft is the payload written to the event_outbox table, inside the
// same transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
