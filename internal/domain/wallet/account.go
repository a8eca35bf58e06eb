package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Account holds the materialized wallet balance for one user. It is owned
// exclusively by the wallet service; nothing else writes the balance column.
type Account struct {
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates an empty wallet for the given user
func NewAccount(userID uuid.UUID, currency string) *Account {
	now := time.Now()
	return &Account{
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds the amount to the balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return shared.ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// Debit subtracts the amount from the balance. The balance never goes
// negative; callers must hold the account row lock so the comparison and the
// write are race-free.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return shared.ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return shared.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
