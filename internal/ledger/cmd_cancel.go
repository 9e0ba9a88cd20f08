package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
)

// ExecuteCancel marks a payment cancelled. Allowed only from
// pending/processing. No ledger entries, no negotiation update.
func (e *Engine) ExecuteCancel(ctx context.Context, tx pgx.Tx, params domain.CancelParams) (*domain.TransitionResult, error) {
	p, err := e.LockPaymentForUpdate(ctx, tx, params.PaymentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(p.Status, domain.PaymentStatusCancelled) {
		return nil, domain.ErrInvalidStateTransition(p.ID, p.Status, domain.PaymentStatusCancelled)
	}

	p.Status = domain.PaymentStatusCancelled
	now := time.Now().UTC()
	p.CancelledAt = &now
	if err := e.payments.UpdateStatus(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("cancel update status: %w", err)
	}

	event := domain.NewPaymentStatusEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert cancel event: %w", err)
	}

	e.logger.Info("payment cancelled", "payment_id", p.ID)
	return &domain.TransitionResult{Payment: p, Events: []domain.OutboxDraft{event}}, nil
}
