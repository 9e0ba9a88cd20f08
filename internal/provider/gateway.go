// Package provider integrates external payment gateways. The core treats the
// gateway as a black box: amounts cross the boundary in minor units, and any
// opaque failure surfaces as a gateway error without retry.
package provider

import "context"

// PaymentIntent is the gateway-side charge attempt a payment tracks.
type PaymentIntent struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
}

// Refund is a gateway-side refund against an intent.
type Refund struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateIntentParams carries everything the gateway needs to open a charge.
type CreateIntentParams struct {
	AmountCents int64
	Currency    string
	PaymentID   string
	CustomerRef string
	Description string
}

// PaymentGateway abstracts the external card processor. Implementations must
// accept and return amounts in minor units.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	ConfirmIntent(ctx context.Context, intentID, paymentMethodRef string) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, intentID string, amountCents int64, reason string) (*Refund, error)
}
