package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/negoride/platform/internal/domain"
)

const paymentColumns = `id, negotiation_id, customer_id, driver_id, external_payment_ref,
	amount, service_fee, driver_amount, currency, status,
	payment_method_ref, failure_reason, metadata,
	created_at, paid_at, failed_at, refunded_at, cancelled_at`

type paymentRepo struct{}

// NewPaymentRepository returns a pgx-backed PaymentRepository.
func NewPaymentRepository() PaymentRepository {
	return &paymentRepo{}
}

func (r *paymentRepo) Create(ctx context.Context, db DBTX, p *domain.Payment) error {
	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal payment metadata: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO payments (id, negotiation_id, customer_id, driver_id, external_payment_ref,
			amount, service_fee, driver_amount, currency, status,
			payment_method_ref, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.NegotiationID, p.CustomerID, p.DriverID, p.ExternalPaymentRef,
		Int64ToNumeric(p.Amount),
		Int64ToNumeric(p.ServiceFee),
		Int64ToNumeric(p.DriverAmount),
		p.Currency, string(p.Status),
		p.PaymentMethodRef, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *paymentRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

func (r *paymentRepo) LockByExternalRef(ctx context.Context, tx pgx.Tx, ref string) (*domain.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_payment_ref = $1 FOR UPDATE`, ref)
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, db DBTX, p *domain.Payment) error {
	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal payment metadata: %w", err)
	}
	_, err = db.Exec(ctx, `
		UPDATE payments
		SET status = $2, payment_method_ref = $3, failure_reason = $4,
		    paid_at = $5, failed_at = $6, refunded_at = $7, cancelled_at = $8,
		    metadata = $9
		WHERE id = $1`,
		p.ID, string(p.Status), p.PaymentMethodRef, p.FailureReason,
		p.PaidAt, p.FailedAt, p.RefundedAt, p.CancelledAt, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE customer_id = $1 OR driver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) SumCustomerSpendSince(ctx context.Context, db DBTX, customerID uuid.UUID, since time.Time) (int64, error) {
	var sum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE customer_id = $1
		  AND created_at >= $2
		  AND status NOT IN ('failed', 'cancelled')`,
		customerID, since,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum customer spend: %w", err)
	}
	total, err := NumericToInt64(sum)
	if err != nil {
		return 0, fmt.Errorf("convert spend total: %w", err)
	}
	return total, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p, err := scanPaymentRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanPaymentRow(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amountNum, feeNum, driverNum pgtype.Numeric
	var metaJSON []byte
	err := row.Scan(
		&p.ID, &p.NegotiationID, &p.CustomerID, &p.DriverID, &p.ExternalPaymentRef,
		&amountNum, &feeNum, &driverNum, &p.Currency, &p.Status,
		&p.PaymentMethodRef, &p.FailureReason, &metaJSON,
		&p.CreatedAt, &p.PaidAt, &p.FailedAt, &p.RefundedAt, &p.CancelledAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	var convErr error
	p.Amount, convErr = NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert amount: %w", convErr)
	}
	p.ServiceFee, convErr = NumericToInt64(feeNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert service_fee: %w", convErr)
	}
	p.DriverAmount, convErr = NumericToInt64(driverNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert driver_amount: %w", convErr)
	}

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal payment metadata: %w", err)
		}
	}
	return &p, nil
}
