//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)

	payload := testutil.IntentEventPayload("payment_intent.succeeded", *p.ExternalPaymentRef)

	for i := 0; i < 3; i++ {
		resp := env.PostWebhook(payload)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "delivery %d", i+1)
	}

	// Exactly one settlement no matter how many deliveries.
	require.Len(t, env.LedgerEntries(p.ID), 3)
	assert.Equal(t, int64(2250), env.Wallet(driverID).Balance)
	assert.Equal(t, int64(-2500), env.Wallet(customerID).Balance)
}

func TestWebhook_ConflictingTerminalStateRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)

	resp := env.PostWebhook(testutil.IntentEventPayload("payment_intent.succeeded", *p.ExternalPaymentRef))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A late failure event for the same intent contradicts the stored state.
	resp = env.PostWebhook(testutil.IntentEventPayload("payment_intent.payment_failed", *p.ExternalPaymentRef))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Stored state never overwritten.
	assert.Equal(t, domain.PaymentStatusSucceeded, env.FindPayment(p.ID).Status)
	assert.Len(t, env.LedgerEntries(p.ID), 3)
}

func TestWebhook_ConcurrentDeliveriesSettleOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 3000)
	p := env.SeedPayment(negID, customerID, driverID, 3000)

	payload := testutil.IntentEventPayload("payment_intent.succeeded", *p.ExternalPaymentRef)

	const deliveries = 8
	var wg sync.WaitGroup
	statuses := make([]int, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := env.PostWebhook(payload)
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "delivery %d", i+1)
	}

	// The row lock serializes deliveries; losers classify as replays.
	require.Len(t, env.LedgerEntries(p.ID), 3)
	driver := env.Wallet(driverID)
	assert.Equal(t, int64(2700), driver.Balance)
	assert.Equal(t, int64(2700), driver.TotalEarnings)
}

func TestWebhook_FailedThenFailedReplays(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2000)
	p := env.SeedPayment(negID, customerID, driverID, 2000)

	payload := testutil.IntentEventPayload("payment_intent.payment_failed", *p.ExternalPaymentRef)

	resp := env.PostWebhook(payload)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.PostWebhook(payload)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.PaymentStatusFailed, env.FindPayment(p.ID).Status)
}

// Stripe delivers payment_intent.payment_failed, but some gateways and older
// integrations use the shorter payment_intent.failed spelling. Both mark the
// payment failed.
func TestWebhook_FailedEventSpellingAlias(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 1800)
	p := env.SeedPayment(negID, customerID, driverID, 1800)

	resp := env.PostWebhook(testutil.IntentEventPayload("payment_intent.failed", *p.ExternalPaymentRef))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, domain.PaymentStatusFailed, env.FindPayment(p.ID).Status)
	assert.Empty(t, env.LedgerEntries(p.ID))
}
