//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settleViaWebhook(t *testing.T, env *testutil.TestEnv, p *domain.Payment) {
	t.Helper()
	resp := env.PostWebhook(testutil.IntentEventPayload("payment_intent.succeeded", *p.ExternalPaymentRef))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func refund(t *testing.T, env *testutil.TestEnv, params domain.RefundParams) (*domain.TransitionResult, error) {
	t.Helper()
	ctx := context.Background()
	var result *domain.TransitionResult
	err := pgx.BeginTxFunc(ctx, env.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var cmdErr error
		result, cmdErr = env.Engine().ExecuteRefund(ctx, tx, params)
		return cmdErr
	})
	return result, err
}

func TestRefund_FullRefundReversesDriverCredit(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	result, err := refund(t, env, domain.RefundParams{
		PaymentID:  p.ID,
		Reason:     "ride dispute",
		RefundedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, result.Payment.Status)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, domain.CategoryRefundReversal, result.Entries[0].Category)
	assert.Equal(t, int64(2250), result.Entries[0].Amount)

	stored := env.FindPayment(p.ID)
	assert.Equal(t, domain.PaymentStatusRefunded, stored.Status)
	assert.NotNil(t, stored.RefundedAt)
	assert.Equal(t, "ride dispute", stored.Metadata["refund_reason"])

	// Balance returns to zero; cumulative earnings survive the reversal.
	driver := env.Wallet(driverID)
	assert.Equal(t, int64(0), driver.Balance)
	assert.Equal(t, int64(2250), driver.TotalEarnings)

	// Settlement entries plus one reversal.
	assert.Len(t, env.LedgerEntries(p.ID), 4)
}

func TestRefund_PartialRefund(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 3000)
	p := env.SeedPayment(negID, customerID, driverID, 3000)
	settleViaWebhook(t, env, p)

	_, err := refund(t, env, domain.RefundParams{
		PaymentID:  p.ID,
		Amount:     1000,
		RefundedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	driver := env.Wallet(driverID)
	assert.Equal(t, int64(1700), driver.Balance)
	assert.Equal(t, int64(2700), driver.TotalEarnings)
}

func TestRefund_AmountExceedingDriverCreditRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	_, err := refund(t, env, domain.RefundParams{
		PaymentID:  p.ID,
		Amount:     2500, // driver was only credited 2250
		RefundedAt: time.Now().UTC(),
	})
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)

	// Nothing was applied.
	assert.Equal(t, domain.PaymentStatusSucceeded, env.FindPayment(p.ID).Status)
	assert.Equal(t, int64(2250), env.Wallet(driverID).Balance)
}

func TestRefund_SecondRefundRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	_, err := refund(t, env, domain.RefundParams{PaymentID: p.ID, RefundedAt: time.Now().UTC()})
	require.NoError(t, err)

	_, err = refund(t, env, domain.RefundParams{PaymentID: p.ID, RefundedAt: time.Now().UTC()})
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidStateTransition, appErr.Code)

	// Still exactly one reversal entry.
	assert.Len(t, env.LedgerEntries(p.ID), 4)
}

func TestRefund_PendingPaymentCannotBeRefunded(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)

	_, err := refund(t, env, domain.RefundParams{PaymentID: p.ID, RefundedAt: time.Now().UTC()})
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidStateTransition, appErr.Code)
}
