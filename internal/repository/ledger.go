package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/negoride/platform/internal/domain"
)

const entryColumns = `id, payment_id, user_id, direction, category, amount, created_at`

type ledgerRepo struct{}

// NewLedgerRepository returns a pgx-backed LedgerRepository.
func NewLedgerRepository() LedgerRepository {
	return &ledgerRepo{}
}

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func (r *ledgerRepo) Insert(ctx context.Context, db DBTX, entry *domain.Transaction) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO ledger_entries (payment_id, user_id, direction, category, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+entryColumns,
		entry.PaymentID, entry.UserID, string(entry.Direction), string(entry.Category),
		Int64ToNumeric(entry.Amount),
	)
	inserted, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if entry.Category == domain.CategoryRefundReversal {
				return nil, domain.ErrDuplicateReversal(entry.PaymentID)
			}
			return nil, domain.ErrDuplicateSettlement(entry.PaymentID)
		}
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return inserted, nil
}

func (r *ledgerRepo) ListByPayment(ctx context.Context, db DBTX, paymentID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query payment entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *ledgerRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func scanEntry(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountNum pgtype.Numeric
	err := row.Scan(&tx.ID, &tx.PaymentID, &tx.UserID, &tx.Direction, &tx.Category, &amountNum, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	tx.Amount, err = NumericToInt64(amountNum)
	if err != nil {
		return nil, fmt.Errorf("convert entry amount: %w", err)
	}
	return &tx, nil
}

func collectEntries(rows pgx.Rows) ([]domain.Transaction, error) {
	var entries []domain.Transaction
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}
