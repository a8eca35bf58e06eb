package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/booking"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// BookingGateway implements the booking.Gateway interface against the shared
// bookings table. The payment core reads prices and statuses here and writes
// nothing but the status transition on payment and refund.
type BookingGateway struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBookingGateway creates a new PostgreSQL booking gateway
func NewBookingGateway(logger *slog.Logger, db *persistence.PostgresDB) booking.Gateway {
	return &BookingGateway{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the gateway with a transaction for atomic operations
func (g *BookingGateway) WithTx(tx pgx.Tx) booking.Gateway {
	return &BookingGateway{
		querier: tx,
		logger:  g.logger,
	}
}

// GetBooking retrieves a booking only when it belongs to the principal
func (g *BookingGateway) GetBooking(ctx context.Context, id, principal uuid.UUID) (*booking.Booking, error) {
	query := `
		SELECT id, user_id, service_name, status, total_price, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND user_id = $2
	`

	return g.scanOne(ctx, query, id, principal)
}

// LockForUpdate obtains a pessimistic lock on the booking row so the status
// check and transition happen under the same lock as the payment insert.
// Must be used within a transaction.
func (g *BookingGateway) LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*booking.Booking, error) {
	query := `
		SELECT id, user_id, service_name, status, total_price, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`

	return g.scanOne(ctx, query, id, principal)
}

// SetStatus transitions the booking to the given status
func (g *BookingGateway) SetStatus(ctx context.Context, id uuid.UUID, status shared.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := g.querier.Exec(ctx, query, status, id)
	if err != nil {
		g.logger.Error("Failed to update booking status", "id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return booking.ErrBookingNotFound{BookingID: id}
	}

	return nil
}

func (g *BookingGateway) scanOne(ctx context.Context, query string, id, principal uuid.UUID) (*booking.Booking, error) {
	var b booking.Booking
	err := g.querier.QueryRow(ctx, query, id, principal).Scan(
		&b.ID,
		&b.UserID,
		&b.ServiceName,
		&b.Status,
		&b.TotalPrice,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound{BookingID: id}
		}
		g.logger.Error("Failed to get booking", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}
