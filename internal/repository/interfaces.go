package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/negoride/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PaymentRepository provides access to the payments table.
type PaymentRepository interface {
	// Create inserts a new pending payment.
	Create(ctx context.Context, db DBTX, payment *domain.Payment) error

	// FindByID returns a payment by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns
	// the payment. Must be called within a transaction.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payment, error)

	// LockByExternalRef locks the payment carrying the given gateway intent id.
	LockByExternalRef(ctx context.Context, tx pgx.Tx, ref string) (*domain.Payment, error)

	// UpdateStatus persists the payment's status, terminal timestamps,
	// failure reason and payment method reference.
	UpdateStatus(ctx context.Context, db DBTX, payment *domain.Payment) error

	// ListByUser returns payments where the user is customer or driver,
	// newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Payment, error)

	// SumCustomerSpendSince totals the customer's payment amounts created at or
	// after the cutoff, excluding failed and cancelled payments. Feeds the
	// daily spend limit check.
	SumCustomerSpendSince(ctx context.Context, db DBTX, customerID uuid.UUID, since time.Time) (int64, error)
}

// LedgerRepository provides access to the append-only ledger_entries table.
// Entries are never updated or deleted.
type LedgerRepository interface {
	// Insert appends one ledger entry. A (payment_id, category) uniqueness
	// violation is returned as DuplicateSettlement / DuplicateReversal.
	Insert(ctx context.Context, db DBTX, entry *domain.Transaction) (*domain.Transaction, error)

	// ListByPayment returns all entries for a payment ordered by creation time.
	ListByPayment(ctx context.Context, db DBTX, paymentID uuid.UUID) ([]domain.Transaction, error)

	// ListByUser returns all entries for a user ordered by creation time.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Transaction, error)
}

// WalletRepository provides access to wallet_accounts.
type WalletRepository interface {
	// EnsureAndLock creates the wallet row if absent, then acquires a
	// row-level lock on it. Must be called within a transaction.
	EnsureAndLock(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error)

	// ApplyDelta atomically adjusts balance/total_earnings using server-side
	// arithmetic and returns the updated row.
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta domain.WalletDelta) (*domain.WalletAccount, error)

	// FindByUser returns the wallet row, or nil if the user has no wallet yet.
	FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.WalletAccount, error)

	// Overwrite replaces the stored balance/total_earnings. Used only by the
	// rebuild-from-ledger repair path.
	Overwrite(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, ids []uuid.UUID) error
}

// NegotiationRepository writes payment outcomes back to the ride negotiation.
// Only payment_status and payment_completed_at are owned by this service.
type NegotiationRepository interface {
	SetPaymentStatus(ctx context.Context, db DBTX, negotiationID uuid.UUID, status domain.NegotiationPaymentStatus, completedAt *time.Time) error
}
