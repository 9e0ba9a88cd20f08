package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks the payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// AllowedTransitions is the full transition table for the payment state
// machine. Anything not listed here is rejected with InvalidStateTransition.
var AllowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusSucceeded:  {PaymentStatusRefunded},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further gateway-driven
// transition. Refund of a succeeded payment is an operator action, not a
// gateway event, so succeeded counts as terminal here.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment identifies one settlement attempt for a ride. All monetary fields
// are in minor units (cents).
type Payment struct {
	ID                 uuid.UUID         `json:"id"`
	NegotiationID      uuid.UUID         `json:"negotiation_id"`
	CustomerID         uuid.UUID         `json:"customer_id"`
	DriverID           uuid.UUID         `json:"driver_id"`
	ExternalPaymentRef *string           `json:"external_payment_ref,omitempty"`
	Amount             int64             `json:"amount"`
	ServiceFee         int64             `json:"service_fee"`
	DriverAmount       int64             `json:"driver_amount"`
	Currency           string            `json:"currency"`
	Status             PaymentStatus     `json:"status"`
	PaymentMethodRef   *string           `json:"payment_method_ref,omitempty"`
	FailureReason      *string           `json:"failure_reason,omitempty"`
	Metadata           map[string]string `json:"metadata"`
	CreatedAt          time.Time         `json:"created_at"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	FailedAt           *time.Time        `json:"failed_at,omitempty"`
	RefundedAt         *time.Time        `json:"refunded_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
}

// CheckFareSplit verifies the money-conservation invariant
// serviceFee + driverAmount == amount. Settlement must abort on violation.
func (p *Payment) CheckFareSplit() error {
	if p.ServiceFee+p.DriverAmount != p.Amount {
		return ErrLedgerConsistency(p.ID, p.Amount, p.ServiceFee, p.DriverAmount)
	}
	return nil
}
