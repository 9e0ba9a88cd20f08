package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/repository"
)

// Engine owns every payment state transition and the ledger/wallet writes it
// emits. All commands follow the same pattern:
//
//	Lock payment row → check transition table → persist status →
//	append ledger entries + apply wallet deltas + notify negotiation +
//	insert outbox events
//
// everything inside the caller's transaction, so a transition either lands
// completely or not at all.
type Engine struct {
	payments     repository.PaymentRepository
	entries      repository.LedgerRepository
	wallets      repository.WalletRepository
	outbox       repository.OutboxRepository
	negotiations repository.NegotiationRepository
	logger       *slog.Logger
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	payments repository.PaymentRepository,
	entries repository.LedgerRepository,
	wallets repository.WalletRepository,
	outbox repository.OutboxRepository,
	negotiations repository.NegotiationRepository,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		payments:     payments,
		entries:      entries,
		wallets:      wallets,
		outbox:       outbox,
		negotiations: negotiations,
		logger:       logger,
	}
}

// LockPaymentForUpdate acquires a row-level lock and returns the payment.
// Must be called within a transaction.
func (e *Engine) LockPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := e.payments.LockForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound(paymentID.String())
	}
	return payment, nil
}

// EntriesForPayment returns the payment's ledger entries ordered by creation time.
func (e *Engine) EntriesForPayment(ctx context.Context, db repository.DBTX, paymentID uuid.UUID) ([]domain.Transaction, error) {
	return e.entries.ListByPayment(ctx, db, paymentID)
}

// EntriesForUser returns the user's ledger entries ordered by creation time.
func (e *Engine) EntriesForUser(ctx context.Context, db repository.DBTX, userID uuid.UUID) ([]domain.Transaction, error) {
	return e.entries.ListByUser(ctx, db, userID)
}

// walletDeltaFor maps a ledger entry to the wallet mutation it justifies.
// The service_fee entry is audit-only and yields no mutation.
func walletDeltaFor(entry *domain.Transaction) (domain.WalletDelta, bool) {
	if !entry.Category.AffectsBalance() {
		return domain.WalletDelta{}, false
	}
	var delta domain.WalletDelta
	switch entry.Direction {
	case domain.DirectionCredit:
		delta.Balance = entry.Amount
	case domain.DirectionDebit:
		delta.Balance = -entry.Amount
	}
	// Earnings reporting is cumulative: only ride_earning credits grow it,
	// and reversals never shrink it.
	if entry.Category == domain.CategoryRideEarning {
		delta.TotalEarnings = entry.Amount
	}
	return delta, true
}

// postEntry appends one ledger entry and applies the wallet mutation it
// justifies, inside the caller's transaction. Returns the inserted entry and
// the updated wallet (nil for audit-only entries).
func (e *Engine) postEntry(ctx context.Context, tx pgx.Tx, entry domain.Transaction) (*domain.Transaction, *domain.WalletAccount, error) {
	inserted, err := e.entries.Insert(ctx, tx, &entry)
	if err != nil {
		return nil, nil, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewEntryPostedEvent(inserted)); err != nil {
		return nil, nil, fmt.Errorf("insert entry event: %w", err)
	}

	delta, ok := walletDeltaFor(inserted)
	if !ok {
		return inserted, nil, nil
	}

	if _, err := e.wallets.EnsureAndLock(ctx, tx, inserted.UserID); err != nil {
		return nil, nil, err
	}
	wallet, err := e.wallets.ApplyDelta(ctx, tx, inserted.UserID, delta)
	if err != nil {
		return nil, nil, err
	}
	if wallet.Balance < 0 {
		// Allowed: a reversal can exceed what the user has spent so far.
		e.logger.Warn("wallet balance negative",
			"user_id", inserted.UserID,
			"balance", wallet.Balance,
			"payment_id", inserted.PaymentID,
			"category", inserted.Category)
	}

	return inserted, wallet, nil
}

// notifyNegotiation writes the payment outcome back to the negotiation, when
// the transition produces one (paid / failed; cancel and refund do not).
func (e *Engine) notifyNegotiation(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	status, completedAt, ok := domain.NegotiationStatusForTransition(p.Status, p.PaidAt)
	if !ok {
		return nil
	}
	if err := e.negotiations.SetPaymentStatus(ctx, tx, p.NegotiationID, status, completedAt); err != nil {
		return fmt.Errorf("notify negotiation: %w", err)
	}
	return nil
}
