package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Error codes asserted on by callers and tests.
const (
	CodeInvalidStateTransition   = "INVALID_STATE_TRANSITION"
	CodeDuplicateSettlement      = "DUPLICATE_SETTLEMENT"
	CodeDuplicateReversal        = "DUPLICATE_REVERSAL"
	CodePaymentNotFound          = "PAYMENT_NOT_FOUND"
	CodeConflictingTerminalState = "CONFLICTING_TERMINAL_STATE"
	CodeGatewayError             = "GATEWAY_ERROR"
	CodeLedgerConsistency        = "LEDGER_CONSISTENCY_ERROR"
	CodeValidation               = "VALIDATION_ERROR"
)

// ErrInvalidStateTransition rejects a transition not in the allowed table.
// The attempted transition performs no side effect.
func ErrInvalidStateTransition(paymentID uuid.UUID, from, to PaymentStatus) *AppError {
	return &AppError{
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("payment %s: transition %s -> %s not permitted", paymentID, from, to),
		Status:  409,
	}
}

// ErrDuplicateSettlement signals the (payment_id, category) uniqueness guard
// fired on settlement entries.
func ErrDuplicateSettlement(paymentID uuid.UUID) *AppError {
	return &AppError{
		Code:    CodeDuplicateSettlement,
		Message: fmt.Sprintf("settlement already recorded for payment %s", paymentID),
		Status:  409,
	}
}

// ErrDuplicateReversal signals the uniqueness guard fired on the
// refund_reversal entry.
func ErrDuplicateReversal(paymentID uuid.UUID) *AppError {
	return &AppError{
		Code:    CodeDuplicateReversal,
		Message: fmt.Sprintf("reversal already recorded for payment %s", paymentID),
		Status:  409,
	}
}

// ErrPaymentNotFound reports an unknown payment id or gateway reference.
func ErrPaymentNotFound(ref string) *AppError {
	return &AppError{
		Code:    CodePaymentNotFound,
		Message: fmt.Sprintf("payment %s not found", ref),
		Status:  404,
	}
}

// ErrConflictingTerminalState reports a gateway event whose outcome
// contradicts an already-terminal payment. The stored state is never
// overwritten.
func ErrConflictingTerminalState(paymentID uuid.UUID, have PaymentStatus, want PaymentStatus) *AppError {
	return &AppError{
		Code:    CodeConflictingTerminalState,
		Message: fmt.Sprintf("payment %s is %s; conflicting event wants %s", paymentID, have, want),
		Status:  409,
	}
}

// ErrGateway wraps an opaque failure from the payment gateway. Terminal for
// the current attempt; the core never retries.
func ErrGateway(op string, cause error) *AppError {
	return &AppError{Code: CodeGatewayError, Message: fmt.Sprintf("gateway %s failed", op), Status: 502, Cause: cause}
}

// ErrLedgerConsistency reports a fare-split invariant violation detected at
// settlement time. Fatal for the transition: inconsistent money is never
// persisted.
func ErrLedgerConsistency(paymentID uuid.UUID, amount, fee, driver int64) *AppError {
	return &AppError{
		Code:    CodeLedgerConsistency,
		Message: fmt.Sprintf("payment %s: service_fee %d + driver_amount %d != amount %d", paymentID, fee, driver, amount),
		Status:  500,
	}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
