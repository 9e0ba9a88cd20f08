package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
)

// ExecuteFail marks a payment failed. Allowed only from pending/processing.
// Emits no ledger entries; the negotiation is notified with status `failed`.
func (e *Engine) ExecuteFail(ctx context.Context, tx pgx.Tx, params domain.FailParams) (*domain.TransitionResult, error) {
	p, err := e.LockPaymentForUpdate(ctx, tx, params.PaymentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(p.Status, domain.PaymentStatusFailed) {
		return nil, domain.ErrInvalidStateTransition(p.ID, p.Status, domain.PaymentStatusFailed)
	}

	p.Status = domain.PaymentStatusFailed
	failedAt := params.FailedAt
	p.FailedAt = &failedAt
	if params.Reason != "" {
		reason := params.Reason
		p.FailureReason = &reason
	}
	if err := e.payments.UpdateStatus(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("fail update status: %w", err)
	}

	if err := e.notifyNegotiation(ctx, tx, p); err != nil {
		return nil, err
	}

	event := domain.NewPaymentStatusEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert fail event: %w", err)
	}

	e.logger.Info("payment failed", "payment_id", p.ID, "reason", params.Reason)
	return &domain.TransitionResult{Payment: p, Events: []domain.OutboxDraft{event}}, nil
}
