package domain

import "time"

// NegotiationPaymentStatus is the payment-level status written back to the
// ride negotiation. Only `paid` and `failed` are ever produced; cancel and
// refund leave the negotiation untouched.
type NegotiationPaymentStatus string

const (
	NegotiationPaymentPaid   NegotiationPaymentStatus = "paid"
	NegotiationPaymentFailed NegotiationPaymentStatus = "failed"
)

// NegotiationStatusForTransition maps a new payment status to the
// negotiation update it produces, if any.
func NegotiationStatusForTransition(to PaymentStatus, completedAt *time.Time) (NegotiationPaymentStatus, *time.Time, bool) {
	switch to {
	case PaymentStatusSucceeded:
		return NegotiationPaymentPaid, completedAt, true
	case PaymentStatusFailed:
		return NegotiationPaymentFailed, nil, true
	}
	return "", nil, false
}
