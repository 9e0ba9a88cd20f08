package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewPaymentStatusEvent creates the outbox event for a payment transition.
func NewPaymentStatusEvent(p *Payment) OutboxDraft {
	var evtType EventType
	switch p.Status {
	case PaymentStatusSucceeded:
		evtType = EventPaymentSettled
	case PaymentStatusFailed:
		evtType = EventPaymentFailed
	case PaymentStatusCancelled:
		evtType = EventPaymentCancelled
	case PaymentStatusRefunded:
		evtType = EventPaymentRefunded
	}
	payload, _ := json.Marshal(p)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePayment,
		AggregateID:   p.ID.String(),
		EventType:     evtType,
		PartitionKey:  p.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewEntryPostedEvent creates the wallet event for one ledger entry.
func NewEntryPostedEvent(tx *Transaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   tx.UserID.String(),
		EventType:     EventEntryPosted,
		PartitionKey:  tx.UserID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
