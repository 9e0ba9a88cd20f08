package reconcile

import (
	"testing"

	"github.com/negoride/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		current domain.PaymentStatus
		outcome Outcome
		want    Action
	}{
		{"pending + succeeded applies", domain.PaymentStatusPending, OutcomeSucceeded, ActionApply},
		{"pending + failed applies", domain.PaymentStatusPending, OutcomeFailed, ActionApply},
		{"processing + succeeded applies", domain.PaymentStatusProcessing, OutcomeSucceeded, ActionApply},
		{"processing + failed applies", domain.PaymentStatusProcessing, OutcomeFailed, ActionApply},
		{"succeeded + succeeded replays", domain.PaymentStatusSucceeded, OutcomeSucceeded, ActionReplay},
		{"refunded + succeeded replays", domain.PaymentStatusRefunded, OutcomeSucceeded, ActionReplay},
		{"failed + failed replays", domain.PaymentStatusFailed, OutcomeFailed, ActionReplay},
		{"succeeded + failed conflicts", domain.PaymentStatusSucceeded, OutcomeFailed, ActionConflict},
		{"failed + succeeded conflicts", domain.PaymentStatusFailed, OutcomeSucceeded, ActionConflict},
		{"refunded + failed conflicts", domain.PaymentStatusRefunded, OutcomeFailed, ActionConflict},
		{"cancelled + succeeded conflicts", domain.PaymentStatusCancelled, OutcomeSucceeded, ActionConflict},
		{"cancelled + failed conflicts", domain.PaymentStatusCancelled, OutcomeFailed, ActionConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.current, tt.outcome))
		})
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name  string
		event GatewayEvent
		want  string
	}{
		{"code and message", GatewayEvent{ErrorCode: "card_declined", ErrorMessage: "Your card was declined."}, "card_declined: Your card was declined."},
		{"message only", GatewayEvent{ErrorMessage: "Your card was declined."}, "Your card was declined."},
		{"code only", GatewayEvent{ErrorCode: "card_declined"}, "card_declined"},
		{"neither", GatewayEvent{}, "payment failed at gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureReason(tt.event))
		})
	}
}

func TestOutcomeTargetStatus(t *testing.T) {
	assert.Equal(t, domain.PaymentStatusSucceeded, OutcomeSucceeded.targetStatus())
	assert.Equal(t, domain.PaymentStatusFailed, OutcomeFailed.targetStatus())
}
