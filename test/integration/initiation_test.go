//go:build integration

package integration

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/guard"
	"github.com/negoride/platform/internal/policy"
	"github.com/negoride/platform/internal/projection"
	"github.com/negoride/platform/internal/provider"
	"github.com/negoride/platform/internal/reconcile"
	"github.com/negoride/platform/internal/repository"
	"github.com/negoride/platform/internal/service"
	"github.com/negoride/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway stands in for the card processor so the initiation flow can run
// against the real database without external calls.
type fakeGateway struct {
	createCalls atomic.Int64
	failCreate  bool
}

func (g *fakeGateway) CreateIntent(ctx context.Context, params provider.CreateIntentParams) (*provider.PaymentIntent, error) {
	g.createCalls.Add(1)
	if g.failCreate {
		return nil, errors.New("card processor unavailable")
	}
	id := "pi_fake_" + uuid.NewString()[:8]
	return &provider.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_confirmation",
		Amount:       params.AmountCents,
		Currency:     params.Currency,
	}, nil
}

func (g *fakeGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodRef string) (*provider.PaymentIntent, error) {
	return &provider.PaymentIntent{ID: intentID, Status: "processing", PaymentMethod: paymentMethodRef}, nil
}

func (g *fakeGateway) RetrieveIntent(ctx context.Context, intentID string) (*provider.PaymentIntent, error) {
	return &provider.PaymentIntent{ID: intentID, Status: "requires_confirmation"}, nil
}

func (g *fakeGateway) CancelIntent(ctx context.Context, intentID string) (*provider.PaymentIntent, error) {
	return &provider.PaymentIntent{ID: intentID, Status: "canceled"}, nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, intentID string, amountCents int64, reason string) (*provider.Refund, error) {
	return &provider.Refund{ID: "re_fake", Status: "succeeded", Amount: amountCents}, nil
}

func newPaymentService(env *testutil.TestEnv, gw provider.PaymentGateway) *service.PaymentService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	paymentRepo := repository.NewPaymentRepository()
	engine := env.Engine()
	coordinator := reconcile.NewCoordinator(env.Pool, paymentRepo, engine, logger)
	stripe := provider.NewStripeGateway("sk_test_fake", testutil.TestStripeWebhookSecret)
	return service.NewPaymentService(env.Pool, gw, stripe, paymentRepo, engine,
		coordinator, guard.NewIdempotencyGuard(), projection.NewInMemoryStore(),
		policy.DefaultPaymentPolicy(), 10, "CAD", logger)
}

func TestInitiation_CreatesPendingPaymentWithFareSplit(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)

	session, err := svc.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		NegotiationID: negID,
		CustomerID:    customerID,
		DriverID:      driverID,
		Amount:        2500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), session.Amount)
	assert.Equal(t, "25.00", session.AmountDecimal)
	assert.Equal(t, int64(250), session.ServiceFee)
	assert.Equal(t, int64(2250), session.DriverAmount)
	assert.Equal(t, "CAD", session.Currency)
	assert.NotEmpty(t, session.ClientSecret)

	stored := env.FindPayment(uuid.MustParse(session.PaymentID))
	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusPending, stored.Status)
	require.NotNil(t, stored.ExternalPaymentRef)
	assert.Equal(t, session.IntentID, *stored.ExternalPaymentRef)
}

func TestInitiation_IdempotencyKeyReplaysWithoutSecondCharge(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)

	input := service.InitiatePaymentInput{
		NegotiationID:  negID,
		CustomerID:     customerID,
		DriverID:       driverID,
		Amount:         2500,
		IdempotencyKey: "ride-" + negID.String(),
	}

	first, err := svc.InitiatePayment(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.InitiatePayment(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, int64(1), gw.createCalls.Load())
}

func TestInitiation_GatewayFailureLeavesNoPayment(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{failCreate: true}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)

	input := service.InitiatePaymentInput{
		NegotiationID:  negID,
		CustomerID:     customerID,
		DriverID:       driverID,
		Amount:         2500,
		IdempotencyKey: "ride-" + negID.String(),
	}

	_, err := svc.InitiatePayment(context.Background(), input)
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeGatewayError, appErr.Code)

	// The key was released, so a retry reaches the gateway again.
	gw.failCreate = false
	session, err := svc.InitiatePayment(context.Background(), input)
	require.NoError(t, err)
	assert.NotNil(t, env.FindPayment(uuid.MustParse(session.PaymentID)))
	assert.Equal(t, int64(2), gw.createCalls.Load())
}

func TestInitiation_SinglePaymentLimitEnforced(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 60_000)

	_, err := svc.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		NegotiationID: negID,
		CustomerID:    customerID,
		DriverID:      driverID,
		Amount:        60_000,
	})
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
	assert.Equal(t, int64(0), gw.createCalls.Load())
}

func TestInitiation_DailySpendLimitEnforced(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID := uuid.New()

	// Burn through most of the daily cap with seeded payments.
	for i := 0; i < 4; i++ {
		driverID := uuid.New()
		negID := env.SeedNegotiation(customerID, driverID, 48_000)
		env.SeedPayment(negID, customerID, driverID, 48_000)
	}

	driverID := uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 10_000)
	_, err := svc.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		NegotiationID: negID,
		CustomerID:    customerID,
		DriverID:      driverID,
		Amount:        10_000,
	})
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "daily_spend")
}

func TestInitiation_ConfirmMovesToProcessing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)

	session, err := svc.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		NegotiationID: negID,
		CustomerID:    customerID,
		DriverID:      driverID,
		Amount:        2500,
	})
	require.NoError(t, err)

	paymentID := uuid.MustParse(session.PaymentID)
	p, err := svc.ConfirmPayment(context.Background(), paymentID, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusProcessing, p.Status)

	// Confirmation never writes ledger entries; settlement does.
	assert.Empty(t, env.LedgerEntries(paymentID))
}

func TestInitiation_CancelPendingPayment(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gw := &fakeGateway{}
	svc := newPaymentService(env, gw)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)

	session, err := svc.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		NegotiationID: negID,
		CustomerID:    customerID,
		DriverID:      driverID,
		Amount:        2500,
	})
	require.NoError(t, err)

	paymentID := uuid.MustParse(session.PaymentID)
	p, err := svc.CancelPayment(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, p.Status)
	assert.Empty(t, env.LedgerEntries(paymentID))

	// A cancelled payment cannot be settled afterwards.
	_, err = svc.ConfirmPayment(context.Background(), paymentID, "pm_card_visa")
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidStateTransition, appErr.Code)
}
