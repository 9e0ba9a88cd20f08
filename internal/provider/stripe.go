package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// webhookTolerance bounds how stale a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	client        *http.Client
}

// NewStripeGateway creates a Stripe-backed gateway.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// StripeWebhookEvent is a parsed Stripe webhook envelope.
type StripeWebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IntentEventData is the nested data.object of a payment_intent.* event.
type IntentEventData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	PaymentMethod    string `json:"payment_method"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// CreateIntent opens a manual-capture-off payment intent for the fare.
func (s *StripeGateway) CreateIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.AmountCents, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("metadata[payment_id]", params.PaymentID)
	if params.CustomerRef != "" {
		form.Set("metadata[customer_id]", params.CustomerRef)
	}
	if params.Description != "" {
		form.Set("description", params.Description)
	}

	var intent PaymentIntent
	if err := s.call(ctx, http.MethodPost, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// ConfirmIntent confirms the intent with the given payment method.
func (s *StripeGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodRef string) (*PaymentIntent, error) {
	form := url.Values{}
	if paymentMethodRef != "" {
		form.Set("payment_method", paymentMethodRef)
	}
	var intent PaymentIntent
	if err := s.call(ctx, http.MethodPost, "/payment_intents/"+intentID+"/confirm", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RetrieveIntent fetches the intent's current gateway-side state.
func (s *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := s.call(ctx, http.MethodGet, "/payment_intents/"+intentID, nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CancelIntent cancels an intent that has not settled.
func (s *StripeGateway) CancelIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := s.call(ctx, http.MethodPost, "/payment_intents/"+intentID+"/cancel", url.Values{}, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateRefund refunds part or all of a settled intent.
func (s *StripeGateway) CreateRefund(ctx context.Context, intentID string, amountCents int64, reason string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}
	if reason != "" {
		form.Set("metadata[reason]", reason)
	}
	var refund Refund
	if err := s.call(ctx, http.MethodPost, "/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (s *StripeGateway) call(ctx context.Context, method, path string, form url.Values, out any) error {
	if s.secretKey == "" {
		return fmt.Errorf("stripe secret key not configured")
	}

	var body io.Reader
	if form != nil && method != http.MethodGet {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, stripeAPIBase+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe error (status %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the
// payload and returns the parsed event. Header format: t=timestamp,v1=sig.
func (s *StripeGateway) VerifyWebhookSignature(payload []byte, sigHeader string) (*StripeWebhookEvent, error) {
	return verifyWebhookSignature(payload, sigHeader, s.webhookSecret, time.Now())
}

func verifyWebhookSignature(payload []byte, sigHeader, secret string, now time.Time) (*StripeWebhookEvent, error) {
	if secret == "" {
		return nil, fmt.Errorf("stripe webhook secret not configured")
	}

	parts := strings.Split(sigHeader, ",")
	var timestamp string
	var signatures []string
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return nil, fmt.Errorf("invalid signature header format")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}
	if now.Unix()-ts > int64(webhookTolerance.Seconds()) {
		return nil, fmt.Errorf("webhook timestamp too old")
	}

	signedPayload := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event StripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

// ParseIntentEventData extracts the payment intent from a webhook event.
func ParseIntentEventData(data json.RawMessage) (*IntentEventData, error) {
	var wrapper struct {
		Object IntentEventData `json:"object"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse intent event data: %w", err)
	}
	return &wrapper.Object, nil
}
