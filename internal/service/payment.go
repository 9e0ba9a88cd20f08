package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/guard"
	"github.com/negoride/platform/internal/ledger"
	"github.com/negoride/platform/internal/policy"
	"github.com/negoride/platform/internal/projection"
	"github.com/negoride/platform/internal/provider"
	"github.com/negoride/platform/internal/reconcile"
	"github.com/negoride/platform/internal/repository"
)

// PaymentService orchestrates payment initiation, gateway reconciliation and
// refunds on top of the ledger engine.
type PaymentService struct {
	pool        *pgxpool.Pool
	gateway     provider.PaymentGateway
	stripe      *provider.StripeGateway
	payments    repository.PaymentRepository
	engine      *ledger.Engine
	coordinator *reconcile.Coordinator
	idempotency *guard.IdempotencyGuard
	cache       projection.Store
	policy      policy.PaymentPolicy
	feePercent  int64
	currency    string
	logger      *slog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	pool *pgxpool.Pool,
	gateway provider.PaymentGateway,
	stripe *provider.StripeGateway,
	payments repository.PaymentRepository,
	engine *ledger.Engine,
	coordinator *reconcile.Coordinator,
	idempotency *guard.IdempotencyGuard,
	cache projection.Store,
	pol policy.PaymentPolicy,
	feePercent int64,
	currency string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		pool:        pool,
		gateway:     gateway,
		stripe:      stripe,
		payments:    payments,
		engine:      engine,
		coordinator: coordinator,
		idempotency: idempotency,
		cache:       cache,
		policy:      pol,
		feePercent:  feePercent,
		currency:    currency,
		logger:      logger,
	}
}

// InitiatePaymentInput holds the fields of a payment initiation request.
type InitiatePaymentInput struct {
	NegotiationID  uuid.UUID `json:"negotiation_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	DriverID       uuid.UUID `json:"driver_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency,omitempty"`
	Description    string    `json:"description,omitempty"`
	IdempotencyKey string    `json:"-"`
}

// PaymentSession is returned from initiation: the pending payment plus the
// gateway handle the client confirms against.
type PaymentSession struct {
	PaymentID     string `json:"payment_id"`
	IntentID      string `json:"intent_id"`
	ClientSecret  string `json:"client_secret,omitempty"`
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	ServiceFee    int64  `json:"service_fee"`
	DriverAmount  int64  `json:"driver_amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

// InitiatePayment records a pending payment for an agreed fare and opens the
// gateway intent. A replayed idempotency key returns the original payment
// without charging again.
func (s *PaymentService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*PaymentSession, error) {
	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return nil, err
	}
	currency := input.Currency
	if currency == "" {
		currency = s.currency
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if route := policy.EvaluateRoute(s.policy.Routing, currency, "card"); !route.Allowed {
		return nil, domain.ErrValidation(route.Reason)
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	dailySpend, err := s.payments.SumCustomerSpendSince(ctx, s.pool, input.CustomerID, startOfDay)
	if err != nil {
		return nil, domain.ErrInternal("sum daily spend", err)
	}
	if eval := policy.EvaluateLimits(s.policy.Limits, input.Amount, dailySpend); !eval.Allowed {
		s.logger.Warn("payment rejected by limit policy",
			"customer_id", input.CustomerID,
			"breached_limit", eval.BreachedLimit,
			"limit_value", eval.LimitValue,
			"requested", eval.RequestedAmt)
		return nil, domain.ErrValidation(fmt.Sprintf("%s limit of %d exceeded", eval.BreachedLimit, eval.LimitValue))
	}

	if priorID, fresh := s.idempotency.Claim(ctx, input.IdempotencyKey); !fresh {
		if priorID == uuid.Nil {
			return nil, domain.ErrValidation("request with this idempotency key is still in flight")
		}
		prior, err := s.payments.FindByID(ctx, s.pool, priorID)
		if err != nil {
			return nil, domain.ErrInternal("find prior payment", err)
		}
		if prior == nil {
			return nil, domain.ErrPaymentNotFound(priorID.String())
		}
		return sessionFromPayment(prior), nil
	}

	serviceFee, driverAmount := domain.SplitFare(input.Amount, s.feePercent)

	payment := &domain.Payment{
		ID:            uuid.New(),
		NegotiationID: input.NegotiationID,
		CustomerID:    input.CustomerID,
		DriverID:      input.DriverID,
		Amount:        input.Amount,
		ServiceFee:    serviceFee,
		DriverAmount:  driverAmount,
		Currency:      currency,
		Status:        domain.PaymentStatusPending,
	}

	intent, err := s.gateway.CreateIntent(ctx, provider.CreateIntentParams{
		AmountCents: input.Amount,
		Currency:    currency,
		PaymentID:   payment.ID.String(),
		CustomerRef: input.CustomerID.String(),
		Description: input.Description,
	})
	if err != nil {
		s.idempotency.Release(input.IdempotencyKey)
		return nil, domain.ErrGateway("create intent", err)
	}
	payment.ExternalPaymentRef = &intent.ID

	if err := s.payments.Create(ctx, s.pool, payment); err != nil {
		s.idempotency.Release(input.IdempotencyKey)
		return nil, domain.ErrInternal("record payment", err)
	}
	s.idempotency.Record(input.IdempotencyKey, payment.ID)

	s.logger.Info("payment initiated",
		"payment_id", payment.ID,
		"negotiation_id", payment.NegotiationID,
		"amount", payment.Amount,
		"intent_id", intent.ID)

	session := sessionFromPayment(payment)
	session.ClientSecret = intent.ClientSecret
	return session, nil
}

func sessionFromPayment(p *domain.Payment) *PaymentSession {
	session := &PaymentSession{
		PaymentID:     p.ID.String(),
		Amount:        p.Amount,
		AmountDecimal: domain.FormatCents(p.Amount),
		ServiceFee:    p.ServiceFee,
		DriverAmount:  p.DriverAmount,
		Currency:      p.Currency,
		Status:        string(p.Status),
	}
	if p.ExternalPaymentRef != nil {
		session.IntentID = *p.ExternalPaymentRef
	}
	return session
}

// ConfirmPayment confirms the gateway intent with the customer's payment
// method and moves the payment to processing. The settlement itself arrives
// asynchronously via webhook.
func (s *PaymentService) ConfirmPayment(ctx context.Context, paymentID uuid.UUID, paymentMethodRef string) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound(paymentID.String())
	}
	if payment.ExternalPaymentRef == nil {
		return nil, domain.ErrValidation("payment has no gateway intent")
	}

	if _, err := s.gateway.ConfirmIntent(ctx, *payment.ExternalPaymentRef, paymentMethodRef); err != nil {
		return nil, domain.ErrGateway("confirm intent", err)
	}

	var result *domain.TransitionResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		result, err = s.engine.ExecuteMarkProcessing(ctx, tx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Payment, nil
}

// CancelPayment cancels a payment that has not settled, both at the gateway
// and in the ledger.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound(paymentID.String())
	}

	if payment.ExternalPaymentRef != nil {
		if _, err := s.gateway.CancelIntent(ctx, *payment.ExternalPaymentRef); err != nil {
			return nil, domain.ErrGateway("cancel intent", err)
		}
	}

	var result *domain.TransitionResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		result, err = s.engine.ExecuteCancel(ctx, tx, domain.CancelParams{PaymentID: paymentID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Payment, nil
}

// RefundInput holds the fields of a refund request. Amount == 0 refunds the
// full driver share.
type RefundInput struct {
	Amount int64  `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// RequestRefund refunds a settled payment: the gateway refund first, then the
// ledger reversal debiting the driver.
func (s *PaymentService) RequestRefund(ctx context.Context, paymentID uuid.UUID, input RefundInput) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound(paymentID.String())
	}
	if !domain.CanTransition(payment.Status, domain.PaymentStatusRefunded) {
		return nil, domain.ErrInvalidStateTransition(payment.ID, payment.Status, domain.PaymentStatusRefunded)
	}
	if payment.ExternalPaymentRef == nil {
		return nil, domain.ErrValidation("payment has no gateway intent")
	}

	refundAmount := input.Amount
	if refundAmount == 0 {
		refundAmount = payment.DriverAmount
	}

	signals := policy.RefundRiskSignals{
		RefundAmount:  refundAmount,
		DriverCredit:  payment.DriverAmount,
		MissingReason: input.Reason == "",
	}
	if payment.PaidAt != nil {
		signals.HoursSettled = int(time.Since(*payment.PaidAt).Hours())
	}
	if risk := policy.EvaluateRefundRisk(signals); risk.Level != policy.RiskLow {
		s.logger.Warn("refund flagged for review",
			"payment_id", payment.ID,
			"risk_level", risk.Level,
			"risk_score", risk.Score,
			"flags", risk.Flags)
	}

	if _, err := s.gateway.CreateRefund(ctx, *payment.ExternalPaymentRef, refundAmount, input.Reason); err != nil {
		return nil, domain.ErrGateway("create refund", err)
	}

	var result *domain.TransitionResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		result, err = s.engine.ExecuteRefund(ctx, tx, domain.RefundParams{
			PaymentID:  paymentID,
			Amount:     refundAmount,
			Reason:     input.Reason,
			RefundedAt: time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateWallets(ctx, result.Payment)
	return result.Payment, nil
}

// HandleGatewayWebhook verifies and reconciles one webhook delivery. Unknown
// event types are acknowledged so the gateway stops retrying them.
func (s *PaymentService) HandleGatewayWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripe.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		return domain.ErrUnauthorized(fmt.Sprintf("webhook verification failed: %v", err))
	}

	var outcome reconcile.Outcome
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = reconcile.OutcomeSucceeded
	case "payment_intent.payment_failed", "payment_intent.failed":
		outcome = reconcile.OutcomeFailed
	default:
		s.logger.Info("unhandled gateway event type", "type", event.Type, "event_id", event.ID)
		return nil
	}

	data, err := provider.ParseIntentEventData(event.Data)
	if err != nil {
		return domain.ErrInternal("parse intent event", err)
	}

	gwEvent := reconcile.GatewayEvent{
		Outcome:          outcome,
		IntentID:         data.ID,
		PaymentMethodRef: data.PaymentMethod,
		OccurredAt:       time.Now().UTC(),
	}
	if data.LastPaymentError != nil {
		gwEvent.ErrorCode = data.LastPaymentError.Code
		gwEvent.ErrorMessage = data.LastPaymentError.Message
	}

	result, err := s.coordinator.Apply(ctx, gwEvent)
	if err != nil {
		return err
	}
	if !result.Idempotent {
		s.invalidateWallets(ctx, result.Payment)
	}
	return nil
}

// GetPayment returns a payment with its ledger entries.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, []domain.Transaction, error) {
	payment, err := s.payments.FindByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, nil, domain.ErrPaymentNotFound(paymentID.String())
	}

	entries, err := s.engine.EntriesForPayment(ctx, s.pool, paymentID)
	if err != nil {
		return nil, nil, domain.ErrInternal("list entries", err)
	}
	return payment, entries, nil
}

// ListPayments returns the user's payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	payments, err := s.payments.ListByUser(ctx, s.pool, userID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list payments", err)
	}
	return payments, nil
}

// invalidateWallets drops cached wallet projections for both parties after a
// transition that moved money. Best effort: the cache self-expires anyway.
func (s *PaymentService) invalidateWallets(ctx context.Context, p *domain.Payment) {
	for _, userID := range []uuid.UUID{p.CustomerID, p.DriverID} {
		if err := projection.InvalidateWallet(ctx, s.cache, userID.String()); err != nil {
			s.logger.Warn("invalidate wallet projection", "user_id", userID, "error", err)
		}
	}
}
