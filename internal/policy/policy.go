package policy

// PaymentPolicy bundles the checks applied before a payment is initiated.
type PaymentPolicy struct {
	Limits  LimitPolicy
	Routing RoutingPolicy
}

// DefaultPaymentPolicy returns the platform defaults.
func DefaultPaymentPolicy() PaymentPolicy {
	return PaymentPolicy{
		Limits:  DefaultLimits(),
		Routing: DefaultRoutingPolicy(),
	}
}
