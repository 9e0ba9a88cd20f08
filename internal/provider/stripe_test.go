package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	secret := "whsec_test_secret"
	g := NewStripeGateway("", secret)

	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{}}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sigHeader := fmt.Sprintf("t=%s,v1=%s", ts, signPayload(secret, ts, payload))

	event, err := g.VerifyWebhookSignature(payload, sigHeader)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, "payment_intent.succeeded", event.Type)
}

func TestVerifyWebhookSignature_MultipleSignatures(t *testing.T) {
	secret := "whsec_test_secret"
	g := NewStripeGateway("", secret)

	payload := []byte(`{"id":"evt_456","type":"payment_intent.payment_failed","data":{}}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sigHeader := fmt.Sprintf("t=%s,v1=stale_rotation_sig,v1=%s", ts, signPayload(secret, ts, payload))

	event, err := g.VerifyWebhookSignature(payload, sigHeader)
	require.NoError(t, err)
	assert.Equal(t, "evt_456", event.ID)
}

func TestVerifyWebhookSignature_InvalidSignature(t *testing.T) {
	g := NewStripeGateway("", "whsec_test_secret")

	payload := []byte(`{"id":"evt_123","type":"test"}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sigHeader := fmt.Sprintf("t=%s,v1=invalid_signature", ts)

	_, err := g.VerifyWebhookSignature(payload, sigHeader)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook signature")
}

func TestVerifyWebhookSignature_ExpiredTimestamp(t *testing.T) {
	secret := "whsec_test_secret"
	g := NewStripeGateway("", secret)

	payload := []byte(`{"id":"evt_123","type":"test"}`)
	ts := fmt.Sprintf("%d", time.Now().Unix()-600) // 10 minutes ago
	sigHeader := fmt.Sprintf("t=%s,v1=%s", ts, signPayload(secret, ts, payload))

	_, err := g.VerifyWebhookSignature(payload, sigHeader)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp too old")
}

func TestVerifyWebhookSignature_MissingHeader(t *testing.T) {
	g := NewStripeGateway("", "whsec_test_secret")
	_, err := g.VerifyWebhookSignature([]byte(`{}`), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature header format")
}

func TestVerifyWebhookSignature_NoSecret(t *testing.T) {
	g := NewStripeGateway("", "")
	_, err := g.VerifyWebhookSignature([]byte(`{}`), "t=1,v1=abc")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "webhook secret not configured")
}

func TestParseIntentEventData(t *testing.T) {
	raw := []byte(`{"object":{"id":"pi_123","status":"requires_payment_method","amount":2500,"currency":"cad","last_payment_error":{"code":"card_declined","message":"Your card was declined."}}}`)

	data, err := ParseIntentEventData(raw)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", data.ID)
	assert.Equal(t, int64(2500), data.Amount)
	require.NotNil(t, data.LastPaymentError)
	assert.Equal(t, "card_declined", data.LastPaymentError.Code)
}
