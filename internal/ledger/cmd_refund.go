package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
)

// ExecuteRefund reverses a settled payment. Allowed only from succeeded.
// A zero params.Amount refunds the full driverAmount credited at settlement;
// the reversal never exceeds it. The driver's balance is debited,
// totalEarnings is deliberately left untouched (earnings reporting is
// cumulative, not reversible).
func (e *Engine) ExecuteRefund(ctx context.Context, tx pgx.Tx, params domain.RefundParams) (*domain.TransitionResult, error) {
	p, err := e.LockPaymentForUpdate(ctx, tx, params.PaymentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(p.Status, domain.PaymentStatusRefunded) {
		return nil, domain.ErrInvalidStateTransition(p.ID, p.Status, domain.PaymentStatusRefunded)
	}

	refundAmount := params.Amount
	if refundAmount == 0 {
		refundAmount = p.DriverAmount
	}
	if refundAmount < 0 {
		return nil, domain.ErrValidation(fmt.Sprintf("refund amount must be positive, got %d", refundAmount))
	}
	if refundAmount > p.DriverAmount {
		return nil, domain.ErrValidation(fmt.Sprintf("refund %d exceeds credited driver amount %d", refundAmount, p.DriverAmount))
	}

	p.Status = domain.PaymentStatusRefunded
	refundedAt := params.RefundedAt
	p.RefundedAt = &refundedAt
	if params.Reason != "" {
		if p.Metadata == nil {
			p.Metadata = map[string]string{}
		}
		p.Metadata["refund_reason"] = params.Reason
	}
	if err := e.payments.UpdateStatus(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("refund update status: %w", err)
	}

	inserted, wallet, err := e.postEntry(ctx, tx, domain.ReversalEntry(p, refundAmount))
	if err != nil {
		return nil, err
	}

	result := &domain.TransitionResult{Payment: p, Entries: []domain.Transaction{*inserted}}
	if wallet != nil {
		result.Wallets = append(result.Wallets, *wallet)
	}

	event := domain.NewPaymentStatusEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert refund event: %w", err)
	}
	result.Events = append(result.Events, event)

	e.logger.Info("payment refunded",
		"payment_id", p.ID,
		"refund_amount", refundAmount,
		"reason", params.Reason)
	return result, nil
}
