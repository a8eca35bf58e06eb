package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

func TestNewEntry_Arithmetic(t *testing.T) {
	userID := uuid.New()
	amount := decimal.RequireFromString("25.00")
	before := decimal.RequireFromString("40.00")

	tests := []struct {
		kind  shared.EntryKind
		after string
	}{
		{shared.EntryKindTopup, "65.00"},
		{shared.EntryKindRefund, "65.00"},
		{shared.EntryKindBonus, "65.00"},
		{shared.EntryKindPayment, "15.00"},
		{shared.EntryKindDeduction, "15.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			entry, err := NewEntry(userID, tt.kind, amount, before, decimal.RequireFromString(tt.after))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, entry.Kind)
			assert.Equal(t, shared.EntryStatusCompleted, entry.Status)
			assert.True(t, entry.BalanceAfter.Sub(entry.BalanceBefore).Abs().Equal(amount))
		})
	}
}

func TestNewEntry_RejectsBrokenArithmetic(t *testing.T) {
	userID := uuid.New()
	amount := decimal.RequireFromString("10.00")
	before := decimal.Zero

	// A credit of 10 on 0 must land on exactly 10; any other after-balance is
	// a corrupted audit row.
	_, err := NewEntry(userID, shared.EntryKindTopup, amount, before, decimal.RequireFromString("99.00"))
	require.Error(t, err)

	// Sign flipped: a debit kind must decrease the balance.
	_, err = NewEntry(userID, shared.EntryKindPayment, amount, decimal.RequireFromString("50.00"), decimal.RequireFromString("60.00"))
	require.Error(t, err)
}

func TestNewEntry_RejectsInvalidInput(t *testing.T) {
	userID := uuid.New()

	_, err := NewEntry(userID, "chargeback", decimal.RequireFromString("5.00"), decimal.Zero, decimal.RequireFromString("5.00"))
	require.Error(t, err)

	_, err = NewEntry(userID, shared.EntryKindTopup, decimal.Zero, decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = NewEntry(userID, shared.EntryKindTopup, decimal.RequireFromString("-5.00"), decimal.Zero, decimal.RequireFromString("-5.00"))
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestAccount_CreditDebitRoundTrip(t *testing.T) {
	acc := NewAccount(uuid.New(), "USD")
	require.NoError(t, acc.Credit(decimal.RequireFromString("40.00")))
	original := acc.Balance

	amount := decimal.RequireFromString("12.34")
	require.NoError(t, acc.Credit(amount))
	require.NoError(t, acc.Debit(amount))

	assert.True(t, acc.Balance.Equal(original), "credit then debit of the same amount must restore the balance exactly, got %s", acc.Balance)
}
