package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/negoride/platform/internal/auth"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/service"
)

// PaymentHandler handles payment lifecycle endpoints.
type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type initiatePaymentRequest struct {
	NegotiationID string `json:"negotiation_id"`
	DriverID      string `json:"driver_id"`
	// Amount is in cents; amount_decimal is the "10.50" form mobile clients
	// send. When both are present the decimal wins.
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
}

func (req *initiatePaymentRequest) amountCents() (int64, error) {
	if req.AmountDecimal == "" {
		return req.Amount, nil
	}
	cents, err := domain.ParseDecimalToCents(req.AmountDecimal)
	if err != nil {
		return 0, domain.ErrValidation(err.Error())
	}
	return cents, nil
}

// InitiatePayment handles POST /payments.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	customerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req initiatePaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	negotiationID, err := uuid.Parse(req.NegotiationID)
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid negotiation_id"))
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid driver_id"))
		return
	}
	amount, err := req.amountCents()
	if err != nil {
		RespondError(w, err)
		return
	}

	session, err := h.paymentSvc.InitiatePayment(r.Context(), service.InitiatePaymentInput{
		NegotiationID:  negotiationID,
		CustomerID:     customerID,
		DriverID:       driverID,
		Amount:         amount,
		Currency:       req.Currency,
		Description:    req.Description,
		IdempotencyKey: r.Header.Get("X-Idempotency-Key"),
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, session)
}

type confirmPaymentRequest struct {
	PaymentMethodRef string `json:"payment_method_ref"`
}

// ConfirmPayment handles POST /payments/{id}/confirm.
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := paymentIDFromPath(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req confirmPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payment, err := h.paymentSvc.ConfirmPayment(r.Context(), paymentID, req.PaymentMethodRef)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, payment)
}

// CancelPayment handles POST /payments/{id}/cancel.
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := paymentIDFromPath(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payment, err := h.paymentSvc.CancelPayment(r.Context(), paymentID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, payment)
}

// RequestRefund handles POST /payments/{id}/refund (ops only).
func (h *PaymentHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	paymentID, err := paymentIDFromPath(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req service.RefundInput
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payment, err := h.paymentSvc.RequestRefund(r.Context(), paymentID, req)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, payment)
}

// GetPayment handles GET /payments/{id}.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := paymentIDFromPath(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payment, entries, err := h.paymentSvc.GetPayment(r.Context(), paymentID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"payment": payment,
		"entries": entries,
	})
}

// ListPayments handles GET /payments.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payments, err := h.paymentSvc.ListPayments(r.Context(), userID, 50)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, payments)
}

func paymentIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid payment id")
	}
	return id, nil
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
