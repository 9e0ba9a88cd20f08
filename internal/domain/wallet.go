package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletAccount is the per-user running balance derived from the ledger.
// The stored values are a cache of replaying the user's credit/debit entries;
// every mutation goes through the same atomic path as the ledger append that
// justifies it.
type WalletAccount struct {
	UserID        uuid.UUID `json:"user_id"`
	Balance       int64     `json:"balance"`
	TotalEarnings int64     `json:"total_earnings"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WalletDelta describes the change applied to a wallet row alongside a
// ledger append. Balance may be negative (debit); TotalEarnings only grows.
type WalletDelta struct {
	Balance       int64
	TotalEarnings int64
}

// SettleParams is the input to the settle command.
type SettleParams struct {
	PaymentID        uuid.UUID
	SettledAt        time.Time
	PaymentMethodRef string
}

// FailParams is the input to the fail command.
type FailParams struct {
	PaymentID uuid.UUID
	Reason    string
	FailedAt  time.Time
}

// CancelParams is the input to the cancel command.
type CancelParams struct {
	PaymentID uuid.UUID
}

// RefundParams is the input to the refund command. Amount == 0 refunds the
// full driverAmount that was credited at settlement.
type RefundParams struct {
	PaymentID  uuid.UUID
	Amount     int64
	Reason     string
	RefundedAt time.Time
}

// TransitionResult is the return value from all ledger commands.
type TransitionResult struct {
	Payment *Payment
	Entries []Transaction
	Wallets []WalletAccount
	Events  []OutboxDraft
	// Idempotent is true when the command found the transition already
	// applied and returned existing state instead of re-applying.
	Idempotent bool
}
