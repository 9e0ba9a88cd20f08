package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/negoride/platform/internal/domain"
)

type walletRepo struct{}

// NewWalletRepository returns a pgx-backed WalletRepository.
func NewWalletRepository() WalletRepository {
	return &walletRepo{}
}

// EnsureAndLock creates the wallet lazily on first use, then locks it.
// The INSERT and the SELECT FOR UPDATE run in the caller's transaction, so
// two payments crediting the same driver serialize on the wallet row.
func (r *walletRepo) EnsureAndLock(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallet_accounts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	row := tx.QueryRow(ctx, `
		SELECT user_id, balance, total_earnings, updated_at
		FROM wallet_accounts WHERE user_id = $1 FOR UPDATE`, userID)
	w, err := scanWallet(row)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

// ApplyDelta uses server-side arithmetic so the new balance is computed from
// the locked row, never from a stale read.
func (r *walletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta domain.WalletDelta) (*domain.WalletAccount, error) {
	row := tx.QueryRow(ctx, `
		UPDATE wallet_accounts
		SET balance = balance + $2,
		    total_earnings = total_earnings + $3,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING user_id, balance, total_earnings, updated_at`,
		userID,
		Int64ToNumeric(delta.Balance),
		Int64ToNumeric(delta.TotalEarnings),
	)
	w, err := scanWallet(row)
	if err != nil {
		return nil, fmt.Errorf("apply wallet delta: %w", err)
	}
	return w, nil
}

func (r *walletRepo) FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.WalletAccount, error) {
	row := db.QueryRow(ctx, `
		SELECT user_id, balance, total_earnings, updated_at
		FROM wallet_accounts WHERE user_id = $1`, userID)
	w, err := scanWallet(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return w, nil
}

func (r *walletRepo) Overwrite(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error {
	_, err := tx.Exec(ctx, `
		UPDATE wallet_accounts
		SET balance = $2, total_earnings = $3, updated_at = now()
		WHERE user_id = $1`,
		w.UserID,
		Int64ToNumeric(w.Balance),
		Int64ToNumeric(w.TotalEarnings),
	)
	if err != nil {
		return fmt.Errorf("overwrite wallet: %w", err)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.WalletAccount, error) {
	var w domain.WalletAccount
	var balNum, earnNum pgtype.Numeric
	err := row.Scan(&w.UserID, &balNum, &earnNum, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	var convErr error
	w.Balance, convErr = NumericToInt64(balNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert balance: %w", convErr)
	}
	w.TotalEarnings, convErr = NumericToInt64(earnNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_earnings: %w", convErr)
	}
	return &w, nil
}
