package domain

import (
	"fmt"
	"strings"
)

// Monetary values are carried as int64 minor units (cents). Decimal strings
// cross the API boundary; the gateway already speaks minor units, so these
// helpers are the only place rounding happens.

// ParseDecimalToCents converts a 2-decimal string amount to cents. More than
// two fractional digits are rounded half-up, matching how amounts are
// pre-rounded at payment creation.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}

	var units int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		units = units*10 + int64(r-'0')
		if units < 0 || units > (1<<63-1)/100 {
			return 0, fmt.Errorf("amount %q overflows", s)
		}
	}
	cents := units * 100
	// Fold in up to 2 fractional digits, then round half-up on the third.
	for i, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		switch i {
		case 0:
			cents += int64(r-'0') * 10
		case 1:
			cents += int64(r - '0')
		case 2:
			if r >= '5' {
				cents++
			}
		}
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatCents renders cents as a 2-decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SplitFare computes the platform fee and driver share for a fare, both in
// cents. The fee is rounded half-up so that fee + driver == amount exactly.
// feePercent is a whole percentage (e.g. 10 for a 10% fee).
func SplitFare(amount int64, feePercent int64) (serviceFee, driverAmount int64) {
	serviceFee = (amount*feePercent + 50) / 100
	driverAmount = amount - serviceFee
	return serviceFee, driverAmount
}
