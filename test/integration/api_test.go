//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/negoride/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_WalletReadAfterSettlement(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	resp := env.AuthGET("/wallet", env.DriverToken(driverID))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wallet struct {
		UserID        string `json:"user_id"`
		Balance       int64  `json:"balance"`
		TotalEarnings int64  `json:"total_earnings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wallet))
	assert.Equal(t, driverID.String(), wallet.UserID)
	assert.Equal(t, int64(2250), wallet.Balance)
	assert.Equal(t, int64(2250), wallet.TotalEarnings)
}

func TestAPI_WalletLedgerListsEntries(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	resp := env.AuthGET("/wallet/ledger", env.DriverToken(driverID))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []struct {
		Category  string `json:"category"`
		Direction string `json:"direction"`
		Amount    int64  `json:"amount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	// Driver sees earning and fee entries, not the customer's debit.
	require.Len(t, entries, 2)
}

func TestAPI_GetPaymentWithEntries(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	resp := env.AuthGET("/payments/"+p.ID.String(), env.RiderToken(customerID))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Payment struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"payment"`
		Entries []json.RawMessage `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, p.ID.String(), body.Payment.ID)
	assert.Equal(t, "succeeded", body.Payment.Status)
	assert.Len(t, body.Entries, 3)
}

func TestAPI_UnauthenticatedRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for _, path := range []string{"/wallet", "/payments"} {
		resp := env.GET(path)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestAPI_RiderTokenCannotReachOps(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()

	resp := env.AuthPOST("/ops/wallets/"+userID.String()+"/rebuild", nil, env.RiderToken(userID))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_OpsViewerCannotRefund(t *testing.T) {
	env := testutil.NewTestEnv(t)
	paymentID := uuid.New()

	resp := env.AuthPOST("/ops/payments/"+paymentID.String()+"/refund", map[string]any{}, env.OpsToken("viewer"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_OpsRebuildRepairsDriftedWallet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, driverID := uuid.New(), uuid.New()
	negID := env.SeedNegotiation(customerID, driverID, 2500)
	p := env.SeedPayment(negID, customerID, driverID, 2500)
	settleViaWebhook(t, env, p)

	// Corrupt the stored wallet row behind the ledger's back.
	_, err := env.Pool.Exec(context.Background(),
		`UPDATE wallet_accounts SET balance = 999999 WHERE user_id = $1`, driverID)
	require.NoError(t, err)

	resp := env.AuthPOST("/ops/wallets/"+driverID.String()+"/rebuild", nil, env.OpsToken("admin"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Balance      int64 `json:"balance"`
		BalanceDrift int64 `json:"balance_drift"`
		Repaired     bool  `json:"repaired"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Repaired)
	assert.Equal(t, int64(2250), result.Balance)
	assert.Equal(t, int64(999999-2250), result.BalanceDrift)

	assert.Equal(t, int64(2250), env.Wallet(driverID).Balance)
}

func TestAPI_HealthEndpoint(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/health")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
