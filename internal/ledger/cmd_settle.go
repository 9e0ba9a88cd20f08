package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
)

// ExecuteSettle marks a payment succeeded and records the settlement:
// exactly one ride_payment debit of the customer, one ride_earning credit of
// the driver, and the audit-only service_fee entry. Allowed only from
// pending/processing; any other source state is rejected before anything is
// written.
func (e *Engine) ExecuteSettle(ctx context.Context, tx pgx.Tx, params domain.SettleParams) (*domain.TransitionResult, error) {
	p, err := e.LockPaymentForUpdate(ctx, tx, params.PaymentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(p.Status, domain.PaymentStatusSucceeded) {
		return nil, domain.ErrInvalidStateTransition(p.ID, p.Status, domain.PaymentStatusSucceeded)
	}

	// Money conservation gate: never persist an inconsistent split.
	if err := p.CheckFareSplit(); err != nil {
		return nil, err
	}

	p.Status = domain.PaymentStatusSucceeded
	settledAt := params.SettledAt
	p.PaidAt = &settledAt
	if params.PaymentMethodRef != "" {
		ref := params.PaymentMethodRef
		p.PaymentMethodRef = &ref
	}
	if err := e.payments.UpdateStatus(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("settle update status: %w", err)
	}

	result := &domain.TransitionResult{Payment: p}
	for _, entry := range domain.SettlementEntries(p) {
		inserted, wallet, err := e.postEntry(ctx, tx, entry)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, *inserted)
		if wallet != nil {
			result.Wallets = append(result.Wallets, *wallet)
		}
	}

	if err := e.notifyNegotiation(ctx, tx, p); err != nil {
		return nil, err
	}

	event := domain.NewPaymentStatusEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert settle event: %w", err)
	}
	result.Events = append(result.Events, event)

	e.logger.Info("payment settled",
		"payment_id", p.ID,
		"amount", p.Amount,
		"driver_amount", p.DriverAmount,
		"service_fee", p.ServiceFee)
	return result, nil
}
