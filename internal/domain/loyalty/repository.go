package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages the append-only loyalty points log
type Repository interface {
	Create(ctx context.Context, entry *Entry) error

	// SumByUserID computes the user's current point balance
	SumByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Entry, error)

	// AcquireUserLock takes a transaction-scoped advisory lock on the user so
	// a sufficiency check against the running sum and the subsequent insert
	// are atomic. There is no balance row to lock, hence the advisory lock.
	AcquireUserLock(ctx context.Context, userID uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}
