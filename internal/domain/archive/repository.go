// Package archive defines the read-optimized audit store fed from the ledger
// event stream. It is derived data: rebuilding it from Postgres is always
// possible, and nothing in the payment core reads from it.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Repository persists archived ledger events
type Repository interface {
	// Save stores an event, returning ErrDuplicateEvent when the event ID was
	// already archived. Kafka delivers at least once, so replays are routine.
	Save(ctx context.Context, event *shared.LedgerEvent) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*shared.LedgerEvent, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*shared.LedgerEvent, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*shared.LedgerEvent, error)
}

// ErrDuplicateEvent indicates the event was already archived
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "ledger event already archived: " + e.EventID.String()
}

// Is matches any ErrDuplicateEvent when the target carries the nil UUID
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || e.EventID == t.EventID
}

// ErrEventNotFound indicates a missing archived event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "archived ledger event not found: " + e.EventID.String()
}

// Is matches any ErrEventNotFound when the target carries the nil UUID
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || e.EventID == t.EventID
}
