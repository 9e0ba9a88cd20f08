package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
)

// ExecuteMarkProcessing moves a payment from pending to processing once the
// gateway has accepted the charge attempt. No ledger entries are written;
// money only moves on settle. Calling it again while already processing is a
// no-op so confirm retries stay safe.
func (e *Engine) ExecuteMarkProcessing(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (*domain.TransitionResult, error) {
	p, err := e.LockPaymentForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status == domain.PaymentStatusProcessing {
		return &domain.TransitionResult{Payment: p, Idempotent: true}, nil
	}
	if !domain.CanTransition(p.Status, domain.PaymentStatusProcessing) {
		return nil, domain.ErrInvalidStateTransition(p.ID, p.Status, domain.PaymentStatusProcessing)
	}

	p.Status = domain.PaymentStatusProcessing
	if err := e.payments.UpdateStatus(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	e.logger.Info("payment processing", "payment_id", p.ID)
	return &domain.TransitionResult{Payment: p}, nil
}
