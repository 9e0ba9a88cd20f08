// Package reconcile turns asynchronous gateway webhook deliveries into ledger
// transitions. Deliveries are at-least-once and unordered, so every event is
// classified against the payment's current state before anything is written:
// a replay of an outcome already recorded is acknowledged without side
// effects, and a contradiction of a terminal state is rejected.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/ledger"
	"github.com/negoride/platform/internal/repository"
)

// Outcome is the settlement result a gateway event asserts.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// GatewayEvent is a normalized webhook event from the payment gateway.
type GatewayEvent struct {
	Outcome          Outcome
	IntentID         string
	PaymentMethodRef string
	ErrorCode        string
	ErrorMessage     string
	OccurredAt       time.Time
}

// Action is the classification of an event against the payment's state.
type Action int

const (
	// ActionApply runs the transition.
	ActionApply Action = iota
	// ActionReplay acknowledges a duplicate delivery without side effects.
	ActionReplay
	// ActionConflict rejects an event contradicting a terminal state.
	ActionConflict
)

// Classify decides what an event delivery means given the payment's current
// status. A refunded payment still matches a replayed success event: the
// settlement the event reports did happen, the refund came after.
func Classify(current domain.PaymentStatus, outcome Outcome) Action {
	if !current.IsTerminal() {
		return ActionApply
	}
	switch outcome {
	case OutcomeSucceeded:
		if current == domain.PaymentStatusSucceeded || current == domain.PaymentStatusRefunded {
			return ActionReplay
		}
	case OutcomeFailed:
		if current == domain.PaymentStatusFailed {
			return ActionReplay
		}
	}
	return ActionConflict
}

func (o Outcome) targetStatus() domain.PaymentStatus {
	if o == OutcomeSucceeded {
		return domain.PaymentStatusSucceeded
	}
	return domain.PaymentStatusFailed
}

// Coordinator applies gateway events to the ledger inside a single
// transaction per event. The payment row lock serializes concurrent
// deliveries of the same event; whichever delivery loses the lock race sees
// the terminal state and classifies as a replay.
type Coordinator struct {
	pool     *pgxpool.Pool
	payments repository.PaymentRepository
	engine   *ledger.Engine
	logger   *slog.Logger
}

func NewCoordinator(pool *pgxpool.Pool, payments repository.PaymentRepository, engine *ledger.Engine, logger *slog.Logger) *Coordinator {
	return &Coordinator{pool: pool, payments: payments, engine: engine, logger: logger}
}

// Apply reconciles one gateway event. Returns the payment after
// reconciliation; TransitionResult.Idempotent is set when the event was a
// replay and nothing changed.
func (c *Coordinator) Apply(ctx context.Context, event GatewayEvent) (*domain.TransitionResult, error) {
	var result *domain.TransitionResult
	err := pgx.BeginTxFunc(ctx, c.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		p, err := c.payments.LockByExternalRef(ctx, tx, event.IntentID)
		if err != nil {
			return fmt.Errorf("lock by intent: %w", err)
		}
		if p == nil {
			return domain.ErrPaymentNotFound(event.IntentID)
		}

		switch Classify(p.Status, event.Outcome) {
		case ActionReplay:
			c.logger.Info("gateway event replayed",
				"payment_id", p.ID,
				"intent_id", event.IntentID,
				"status", p.Status,
				"outcome", event.Outcome)
			result = &domain.TransitionResult{Payment: p, Idempotent: true}
			return nil
		case ActionConflict:
			return domain.ErrConflictingTerminalState(p.ID, p.Status, event.Outcome.targetStatus())
		}

		occurredAt := event.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = time.Now().UTC()
		}

		switch event.Outcome {
		case OutcomeSucceeded:
			result, err = c.engine.ExecuteSettle(ctx, tx, domain.SettleParams{
				PaymentID:        p.ID,
				SettledAt:        occurredAt,
				PaymentMethodRef: event.PaymentMethodRef,
			})
		case OutcomeFailed:
			result, err = c.engine.ExecuteFail(ctx, tx, domain.FailParams{
				PaymentID: p.ID,
				Reason:    failureReason(event),
				FailedAt:  occurredAt,
			})
		default:
			return domain.ErrValidation(fmt.Sprintf("unknown gateway outcome %q", event.Outcome))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func failureReason(event GatewayEvent) string {
	switch {
	case event.ErrorCode != "" && event.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", event.ErrorCode, event.ErrorMessage)
	case event.ErrorMessage != "":
		return event.ErrorMessage
	case event.ErrorCode != "":
		return event.ErrorCode
	default:
		return "payment failed at gateway"
	}
}
