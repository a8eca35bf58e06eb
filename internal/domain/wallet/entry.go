package wallet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Entry is one immutable row of the wallet ledger. It captures a balance
// mutation with before/after snapshots and is created atomically with the
// balance update, never mutated afterwards.
type Entry struct {
	ID            int64             `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Kind          shared.EntryKind  `json:"kind"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceBefore decimal.Decimal   `json:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	Reference     string            `json:"reference,omitempty"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Status        shared.EntryStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewEntry builds a completed ledger entry for the given mutation and checks
// the before/after arithmetic against the kind's sign convention.
func NewEntry(userID uuid.UUID, kind shared.EntryKind, amount, balanceBefore, balanceAfter decimal.Decimal) (*Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown ledger entry kind %q", kind)
	}
	if amount.Sign() <= 0 {
		return nil, shared.ErrInvalidAmount
	}

	expected := balanceBefore.Sub(amount)
	if kind.IsCredit() {
		expected = balanceBefore.Add(amount)
	}
	if !balanceAfter.Equal(expected) {
		return nil, fmt.Errorf("ledger entry arithmetic broken: %s %s on %s must yield %s, got %s",
			kind, amount, balanceBefore, expected, balanceAfter)
	}

	return &Entry{
		UserID:        userID,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Status:        shared.EntryStatusCompleted,
		CreatedAt:     time.Now(),
	}, nil
}

// Signed returns the entry amount with the sign implied by its kind
func (e *Entry) Signed() decimal.Decimal {
	if e.Kind.IsDebit() {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Stats aggregates a user's ledger history per kind
type Stats struct {
	TotalTopups   decimal.Decimal `json:"total_topups"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	TotalRefunds  decimal.Decimal `json:"total_refunds"`
	TotalBonuses  decimal.Decimal `json:"total_bonuses"`
	EntryCount    int64           `json:"transaction_count"`
}

// EntryFilter narrows ledger history queries
type EntryFilter struct {
	Kind   shared.EntryKind
	Status shared.EntryStatus
}
