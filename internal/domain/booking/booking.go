// Package booking models the view of the booking collaborator this core is
// allowed to see: the price to charge, the service name for receipts, and the
// pending -> in_progress transition performed on successful payment.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Booking is the unit being paid for
type Booking struct {
	ID          uuid.UUID            `json:"id"`
	UserID      uuid.UUID            `json:"user_id"`
	ServiceName string               `json:"service_name"`
	Status      shared.BookingStatus `json:"status"`
	TotalPrice  decimal.Decimal      `json:"total_price"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Gateway is the narrow interface consumed from the booking collaborator.
// LockForUpdate pins the booking row so the status check and the transition
// happen under the same lock as the payment insert.
type Gateway interface {
	GetBooking(ctx context.Context, id, principal uuid.UUID) (*Booking, error)
	LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*Booking, error)
	SetStatus(ctx context.Context, id uuid.UUID, status shared.BookingStatus) error
	WithTx(tx pgx.Tx) Gateway
}

// ErrBookingNotFound indicates a missing booking (or one owned by another user)
type ErrBookingNotFound struct {
	BookingID uuid.UUID
}

func (e ErrBookingNotFound) Error() string {
	return "booking not found: " + e.BookingID.String()
}

// Is matches any ErrBookingNotFound when the target carries the nil UUID
func (e ErrBookingNotFound) Is(target error) bool {
	t, ok := target.(ErrBookingNotFound)
	if !ok {
		return false
	}
	return t.BookingID == uuid.Nil || e.BookingID == t.BookingID
}
