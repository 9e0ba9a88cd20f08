package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWalletDeltaFor(t *testing.T) {
	tests := []struct {
		name         string
		entry        domain.Transaction
		wantApply    bool
		wantBalance  int64
		wantEarnings int64
	}{
		{
			name:         "ride earning credits balance and earnings",
			entry:        domain.Transaction{Direction: domain.DirectionCredit, Category: domain.CategoryRideEarning, Amount: 2250},
			wantApply:    true,
			wantBalance:  2250,
			wantEarnings: 2250,
		},
		{
			name:        "ride payment debits the customer",
			entry:       domain.Transaction{Direction: domain.DirectionDebit, Category: domain.CategoryRidePayment, Amount: 2500},
			wantApply:   true,
			wantBalance: -2500,
		},
		{
			name:      "service fee is audit only",
			entry:     domain.Transaction{Direction: domain.DirectionDebit, Category: domain.CategoryServiceFee, Amount: 250},
			wantApply: false,
		},
		{
			name:        "reversal debits balance but not earnings",
			entry:       domain.Transaction{Direction: domain.DirectionDebit, Category: domain.CategoryRefundReversal, Amount: 2250},
			wantApply:   true,
			wantBalance: -2250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, ok := walletDeltaFor(&tt.entry)
			assert.Equal(t, tt.wantApply, ok)
			assert.Equal(t, tt.wantBalance, delta.Balance)
			assert.Equal(t, tt.wantEarnings, delta.TotalEarnings)
		})
	}
}

func TestDeriveWallet(t *testing.T) {
	payment := &domain.Payment{
		ID:           uuid.New(),
		CustomerID:   uuid.New(),
		DriverID:     uuid.New(),
		Amount:       2500,
		ServiceFee:   250,
		DriverAmount: 2250,
	}
	entries := domain.SettlementEntries(payment)

	t.Run("driver after settlement", func(t *testing.T) {
		var driverEntries []domain.Transaction
		for _, e := range entries {
			if e.UserID == payment.DriverID {
				driverEntries = append(driverEntries, e)
			}
		}
		balance, earnings := DeriveWallet(driverEntries)
		assert.Equal(t, int64(2250), balance)
		assert.Equal(t, int64(2250), earnings)
	})

	t.Run("customer after settlement", func(t *testing.T) {
		var customerEntries []domain.Transaction
		for _, e := range entries {
			if e.UserID == payment.CustomerID {
				customerEntries = append(customerEntries, e)
			}
		}
		balance, earnings := DeriveWallet(customerEntries)
		assert.Equal(t, int64(-2500), balance)
		assert.Zero(t, earnings)
	})

	t.Run("driver after full refund keeps earnings", func(t *testing.T) {
		driverEntries := []domain.Transaction{entries[1], entries[2], domain.ReversalEntry(payment, payment.DriverAmount)}
		balance, earnings := DeriveWallet(driverEntries)
		assert.Zero(t, balance)
		assert.Equal(t, int64(2250), earnings)
	})

	t.Run("empty ledger derives zero", func(t *testing.T) {
		balance, earnings := DeriveWallet(nil)
		assert.Zero(t, balance)
		assert.Zero(t, earnings)
	})
}
