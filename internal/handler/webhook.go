package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/negoride/platform/internal/service"
)

// WebhookHandler handles payment gateway webhook callbacks.
type WebhookHandler struct {
	paymentSvc *service.PaymentService
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentSvc *service.PaymentService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{paymentSvc: paymentSvc, logger: logger}
}

// HandleStripeWebhook handles POST /webhooks/stripe. The raw body is required
// for signature verification, so no JSON middleware may touch this route.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		h.logger.Error("read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		h.logger.Warn("missing Stripe-Signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.paymentSvc.HandleGatewayWebhook(r.Context(), body, sigHeader); err != nil {
		h.logger.Error("process gateway webhook", "error", err)
		RespondError(w, err)
		return
	}

	// The gateway retries anything but 2xx.
	RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
