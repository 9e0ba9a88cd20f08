package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction of money movement relative to the user's wallet.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Category classifies a ledger entry.
type Category string

const (
	CategoryRidePayment    Category = "ride_payment"    // customer pays the fare
	CategoryRideEarning    Category = "ride_earning"    // driver earns the fare minus fee
	CategoryServiceFee     Category = "service_fee"     // platform cut, audit-only
	CategoryRefundReversal Category = "refund_reversal" // driver gives earnings back
)

// AffectsBalance reports whether entries of this category contribute to the
// wallet balance derivation. The service_fee entry is informational: the fee
// is already excluded from the driver's ride_earning credit, so deriving it
// into a balance would double-count.
func (c Category) AffectsBalance() bool {
	return c != CategoryServiceFee
}

// Transaction is one immutable ledger entry. Entries are never updated or
// deleted; a refund is modeled as a new refund_reversal entry.
// Amount is always positive; Direction carries the sign.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Direction Direction `json:"direction"`
	Category  Category  `json:"category"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementEntries builds the three entries emitted when a payment settles:
// a ride_payment debit of the customer for the full amount, a ride_earning
// credit of the driver for the driver share, and the audit-only service_fee
// entry attributed to the driver's account.
func SettlementEntries(p *Payment) []Transaction {
	return []Transaction{
		{PaymentID: p.ID, UserID: p.CustomerID, Direction: DirectionDebit, Category: CategoryRidePayment, Amount: p.Amount},
		{PaymentID: p.ID, UserID: p.DriverID, Direction: DirectionCredit, Category: CategoryRideEarning, Amount: p.DriverAmount},
		{PaymentID: p.ID, UserID: p.DriverID, Direction: DirectionDebit, Category: CategoryServiceFee, Amount: p.ServiceFee},
	}
}

// ReversalEntry builds the single refund_reversal debit against the driver.
func ReversalEntry(p *Payment, refundAmount int64) Transaction {
	return Transaction{
		PaymentID: p.ID,
		UserID:    p.DriverID,
		Direction: DirectionDebit,
		Category:  CategoryRefundReversal,
		Amount:    refundAmount,
	}
}
