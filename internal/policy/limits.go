package policy

// LimitPolicy caps what a single rider can move through the platform.
type LimitPolicy struct {
	SinglePaymentMax int64 `json:"single_payment_max"` // cents
	DailySpendMax    int64 `json:"daily_spend_max"`    // cents
}

// DefaultLimits returns the platform defaults ($500 per ride, $2,000 per day).
func DefaultLimits() LimitPolicy {
	return LimitPolicy{
		SinglePaymentMax: 50_000,  // $500
		DailySpendMax:    200_000, // $2,000
	}
}

// LimitEvaluation holds the result of a limit check.
type LimitEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateLimits checks a payment amount against the rider's limits.
// dailySpend is the rider's running total for the current day. A zero limit
// disables that check.
func EvaluateLimits(policy LimitPolicy, amount, dailySpend int64) LimitEvaluation {
	if policy.SinglePaymentMax > 0 && amount > policy.SinglePaymentMax {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: "single_payment",
			LimitValue:    policy.SinglePaymentMax,
			RequestedAmt:  amount,
		}
	}

	if policy.DailySpendMax > 0 && dailySpend+amount > policy.DailySpendMax {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: "daily_spend",
			LimitValue:    policy.DailySpendMax,
			RequestedAmt:  dailySpend + amount,
		}
	}

	return LimitEvaluation{Allowed: true}
}
