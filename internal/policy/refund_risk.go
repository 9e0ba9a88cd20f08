package policy

// RiskLevel classifies refund risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RefundRiskSignals holds the raw inputs for refund risk evaluation.
type RefundRiskSignals struct {
	RefundAmount  int64 `json:"refund_amount"`  // cents
	DriverCredit  int64 `json:"driver_credit"`  // cents credited at settlement
	HoursSettled  int   `json:"hours_settled"`  // hours since settlement
	MissingReason bool  `json:"missing_reason"` // no reason supplied
	RepeatRequest bool  `json:"repeat_request"` // operator retried after rejection
}

// RefundRiskResult holds the evaluated risk.
type RefundRiskResult struct {
	Level RiskLevel `json:"level"`
	Score int       `json:"score"`
	Flags []string  `json:"flags,omitempty"`
}

// EvaluateRefundRisk scores a refund request. High risk never blocks the
// refund; it flags the request for review in the audit log.
func EvaluateRefundRisk(signals RefundRiskSignals) RefundRiskResult {
	var score int
	var flags []string

	if signals.DriverCredit > 0 && signals.RefundAmount >= signals.DriverCredit {
		score += 20
		flags = append(flags, "full_reversal")
	}

	if signals.HoursSettled > 72 {
		score += 30
		flags = append(flags, "stale_settlement")
	} else if signals.HoursSettled > 24 {
		score += 15
		flags = append(flags, "aged_settlement")
	}

	if signals.MissingReason {
		score += 25
		flags = append(flags, "no_reason")
	}

	if signals.RepeatRequest {
		score += 20
		flags = append(flags, "repeat_request")
	}

	level := RiskLow
	if score >= 60 {
		level = RiskHigh
	} else if score >= 30 {
		level = RiskMedium
	}

	return RefundRiskResult{Level: level, Score: score, Flags: flags}
}
