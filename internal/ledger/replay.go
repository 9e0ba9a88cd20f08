package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/domain"
)

// The ledger is the source of truth; the wallet row is a cache of replaying
// it. RebuildWallet is the repair/testing escape hatch that recomputes the
// cache from scratch.

// RebuildResult reports the outcome of a wallet rebuild.
type RebuildResult struct {
	UserID             uuid.UUID `json:"user_id"`
	EntryCount         int       `json:"entry_count"`
	Balance            int64     `json:"balance"`
	TotalEarnings      int64     `json:"total_earnings"`
	BalanceDrift       int64     `json:"balance_drift"`
	TotalEarningsDrift int64     `json:"total_earnings_drift"`
	Repaired           bool      `json:"repaired"`
}

// DeriveWallet replays ledger entries into the balance and totalEarnings
// they imply. Audit-only service_fee entries are skipped: the fee never hit
// the wallet, so deriving it would double-count. Reversals debit the balance
// but leave totalEarnings cumulative.
func DeriveWallet(entries []domain.Transaction) (balance, totalEarnings int64) {
	for _, entry := range entries {
		if !entry.Category.AffectsBalance() {
			continue
		}
		switch entry.Direction {
		case domain.DirectionCredit:
			balance += entry.Amount
		case domain.DirectionDebit:
			balance -= entry.Amount
		}
		if entry.Category == domain.CategoryRideEarning {
			totalEarnings += entry.Amount
		}
	}
	return balance, totalEarnings
}

// RebuildWallet locks the user's wallet, replays every ledger entry for the
// user, and overwrites the stored values when they drifted.
func (e *Engine) RebuildWallet(ctx context.Context, pool *pgxpool.Pool, userID uuid.UUID) (*RebuildResult, error) {
	var result *RebuildResult
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		stored, err := e.wallets.EnsureAndLock(ctx, tx, userID)
		if err != nil {
			return err
		}

		entries, err := e.entries.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		balance, earnings := DeriveWallet(entries)
		result = &RebuildResult{
			UserID:             userID,
			EntryCount:         len(entries),
			Balance:            balance,
			TotalEarnings:      earnings,
			BalanceDrift:       stored.Balance - balance,
			TotalEarningsDrift: stored.TotalEarnings - earnings,
		}

		if result.BalanceDrift == 0 && result.TotalEarningsDrift == 0 {
			return nil
		}

		e.logger.Warn("wallet drift detected",
			"user_id", userID,
			"balance_drift", result.BalanceDrift,
			"earnings_drift", result.TotalEarningsDrift)

		stored.Balance = balance
		stored.TotalEarnings = earnings
		if err := e.wallets.Overwrite(ctx, tx, stored); err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild wallet: %w", err)
	}
	return result, nil
}
