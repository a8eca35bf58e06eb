package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines wallet account persistence operations
type AccountRepository interface {
	// GetOrCreate returns the user's wallet, creating an empty one on first use
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)

	// LockForUpdate acquires a pessimistic row lock on the wallet balance,
	// creating the wallet first if it does not exist yet. Must run inside a
	// transaction.
	LockForUpdate(ctx context.Context, userID uuid.UUID) (*Account, error)

	// UpdateBalance persists the balance computed while holding the row lock
	UpdateBalance(ctx context.Context, account *Account) error

	WithTx(tx pgx.Tx) AccountRepository
}

// EntryRepository manages the append-only wallet ledger
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, filter EntryFilter, limit, offset int) ([]*Entry, error)
	CountByUserID(ctx context.Context, userID uuid.UUID, filter EntryFilter) (int64, error)
	StatsByUserID(ctx context.Context, userID uuid.UUID) (*Stats, error)
	WithTx(tx pgx.Tx) EntryRepository
}

// ErrAccountNotFound indicates a missing wallet account
type ErrAccountNotFound struct {
	UserID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "wallet account not found: " + e.UserID.String()
}

// Is matches any ErrAccountNotFound when the target carries the nil UUID
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.UserID == uuid.Nil || e.UserID == t.UserID
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	ID int64
}

func (e ErrEntryNotFound) Error() string {
	return "wallet ledger entry not found"
}
