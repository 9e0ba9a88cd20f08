package policy

// RoutingPolicy defines which currencies and gateway payment method types a
// payment may be initiated with.
type RoutingPolicy struct {
	AllowedCurrencies []string `json:"allowed_currencies,omitempty"` // empty = all allowed
	BlockedMethods    []string `json:"blocked_methods,omitempty"`
}

// DefaultRoutingPolicy returns a policy that allows everything.
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{}
}

// RouteEvaluation holds the result of a routing check.
type RouteEvaluation struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EvaluateRoute checks if a currency and payment method type are allowed.
func EvaluateRoute(policy RoutingPolicy, currency, method string) RouteEvaluation {
	for _, blocked := range policy.BlockedMethods {
		if blocked == method {
			return RouteEvaluation{Allowed: false, Reason: "payment method blocked: " + method}
		}
	}

	if len(policy.AllowedCurrencies) > 0 {
		found := false
		for _, allowed := range policy.AllowedCurrencies {
			if allowed == currency {
				found = true
				break
			}
		}
		if !found {
			return RouteEvaluation{Allowed: false, Reason: "currency not supported: " + currency}
		}
	}

	return RouteEvaluation{Allowed: true}
}
