//go:build integration

package testutil

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/auth"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/ledger"
	"github.com/negoride/platform/internal/repository"
)

// RiderToken mints a rider JWT for the given user.
func (env *TestEnv) RiderToken(userID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmRider, userID, "rider@test.com", "")
	if err != nil {
		env.t.Fatalf("RiderToken: %v", err)
	}
	return token
}

// DriverToken mints a driver JWT for the given user.
func (env *TestEnv) DriverToken(userID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmDriver, userID, "driver@test.com", "")
	if err != nil {
		env.t.Fatalf("DriverToken: %v", err)
	}
	return token
}

// OpsToken mints an ops JWT with the given role.
func (env *TestEnv) OpsToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmOps, uuid.New(), "ops@test.com", role)
	if err != nil {
		env.t.Fatalf("OpsToken: %v", err)
	}
	return token
}

// Engine builds a ledger engine over the shared pool, for driving commands
// directly in tests that bypass HTTP.
func (env *TestEnv) Engine() *ledger.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return ledger.NewEngine(
		repository.NewPaymentRepository(),
		repository.NewLedgerRepository(),
		repository.NewWalletRepository(),
		repository.NewOutboxRepository(),
		repository.NewNegotiationRepository(),
		logger,
	)
}

// SeedNegotiation inserts a negotiation row and returns its id.
func (env *TestEnv) SeedNegotiation(customerID, driverID uuid.UUID, fare int64) uuid.UUID {
	env.t.Helper()
	id := uuid.New()
	_, err := env.Pool.Exec(context.Background(), `
		INSERT INTO negotiations (id, customer_id, driver_id, agreed_fare, currency)
		VALUES ($1, $2, $3, $4, 'CAD')`,
		id, customerID, driverID, fare)
	if err != nil {
		env.t.Fatalf("SeedNegotiation: %v", err)
	}
	return id
}

// SeedPayment inserts a pending payment with a gateway intent ref and returns it.
func (env *TestEnv) SeedPayment(negotiationID, customerID, driverID uuid.UUID, amount int64) *domain.Payment {
	env.t.Helper()
	fee := amount / 10
	ref := "pi_" + uuid.New().String()[:8]
	p := &domain.Payment{
		ID:                 uuid.New(),
		NegotiationID:      negotiationID,
		CustomerID:         customerID,
		DriverID:           driverID,
		ExternalPaymentRef: &ref,
		Amount:             amount,
		ServiceFee:         fee,
		DriverAmount:       amount - fee,
		Currency:           "CAD",
		Status:             domain.PaymentStatusPending,
	}
	repo := repository.NewPaymentRepository()
	if err := repo.Create(context.Background(), env.Pool, p); err != nil {
		env.t.Fatalf("SeedPayment: %v", err)
	}
	return p
}

// FindPayment reloads a payment from the database.
func (env *TestEnv) FindPayment(id uuid.UUID) *domain.Payment {
	env.t.Helper()
	repo := repository.NewPaymentRepository()
	p, err := repo.FindByID(context.Background(), env.Pool, id)
	if err != nil {
		env.t.Fatalf("FindPayment: %v", err)
	}
	return p
}

// Wallet reloads a wallet row, or returns a zero wallet.
func (env *TestEnv) Wallet(userID uuid.UUID) *domain.WalletAccount {
	env.t.Helper()
	repo := repository.NewWalletRepository()
	w, err := repo.FindByUser(context.Background(), env.Pool, userID)
	if err != nil {
		env.t.Fatalf("Wallet: %v", err)
	}
	if w == nil {
		return &domain.WalletAccount{UserID: userID}
	}
	return w
}

// LedgerEntries lists all entries for a payment.
func (env *TestEnv) LedgerEntries(paymentID uuid.UUID) []domain.Transaction {
	env.t.Helper()
	repo := repository.NewLedgerRepository()
	entries, err := repo.ListByPayment(context.Background(), env.Pool, paymentID)
	if err != nil {
		env.t.Fatalf("LedgerEntries: %v", err)
	}
	return entries
}

// IntentEventPayload builds a Stripe payment_intent event body.
func IntentEventPayload(eventType, intentID string) []byte {
	payload := map[string]any{
		"id":   "evt_" + uuid.New().String()[:8],
		"type": eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":             intentID,
				"status":         "succeeded",
				"payment_method": "pm_card_visa",
			},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

// StripeSignature computes a valid Stripe-Signature header for the payload.
func StripeSignature(payload []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(TestStripeWebhookSecret))
	mac.Write([]byte(ts + "." + string(payload)))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// PostWebhook delivers a signed gateway event to the webhook endpoint.
func (env *TestEnv) PostWebhook(payload []byte) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("POST", env.Server.URL+"/webhooks/stripe", bytes.NewReader(payload))
	if err != nil {
		env.t.Fatalf("PostWebhook: new request: %v", err)
	}
	req.Header.Set("Stripe-Signature", StripeSignature(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("PostWebhook: %v", err)
	}
	return resp
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request with a JSON body.
func (env *TestEnv) AuthPOST(path string, body any, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("AuthPOST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("AuthPOST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthPOST %s: %v", path, err)
	}
	return resp
}
