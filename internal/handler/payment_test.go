package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateRequestAmountCents(t *testing.T) {
	tests := []struct {
		name    string
		req     initiatePaymentRequest
		want    int64
		wantErr bool
	}{
		{name: "cents only", req: initiatePaymentRequest{Amount: 2500}, want: 2500},
		{name: "decimal string", req: initiatePaymentRequest{AmountDecimal: "10.50"}, want: 1050},
		{name: "decimal wins over cents", req: initiatePaymentRequest{Amount: 99, AmountDecimal: "25.00"}, want: 2500},
		{name: "whole number decimal", req: initiatePaymentRequest{AmountDecimal: "7"}, want: 700},
		{name: "malformed decimal", req: initiatePaymentRequest{AmountDecimal: "ten bucks"}, wantErr: true},
		{name: "negative parses, rejected downstream", req: initiatePaymentRequest{AmountDecimal: "-3.00"}, want: -300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.amountCents()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
