package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"10.50", 1050},
		{"0.99", 99},
		{"100", 10000},
		{"1.5", 150},
		{"0.01", 1},
		{"75.00", 7500},
		{"-3.25", -325},
		{"2.005", 201}, // third digit rounds half-up
		{"2.004", 200}, // third digit below half truncates
		{" 12.34 ", 1234},
		{".50", 50},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDecimalToCents_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "1,50", "12x"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDecimalToCents(input)
			require.Error(t, err)
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{1050, "10.50"},
		{99, "0.99"},
		{10000, "100.00"},
		{1, "0.01"},
		{0, "0.00"},
		{-6750, "-67.50"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCents(tt.input))
		})
	}
}

func TestSplitFare(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		feePercent int64
		wantFee    int64
		wantDriver int64
	}{
		{"10 percent of 100.00", 10000, 10, 1000, 9000},
		{"10 percent of 75.00", 7500, 10, 750, 6750},
		{"rounds half-up", 1005, 10, 101, 904}, // 100.5 → 101
		{"zero fee", 5000, 0, 0, 5000},
		{"full fee", 5000, 100, 5000, 0},
		{"one cent fare", 1, 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, driver := SplitFare(tt.amount, tt.feePercent)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.amount, fee+driver, "split must conserve the fare")
		})
	}
}
