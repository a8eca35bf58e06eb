package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidyhome-payments-ledger/internal/domain/booking"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

var bookingColumns = []string{"id", "user_id", "service_name", "status", "total_price", "created_at", "updated_at"}

func testBooking(userID uuid.UUID) *booking.Booking {
	now := time.Now()
	return &booking.Booking{
		ID:          uuid.New(),
		UserID:      userID,
		ServiceName: "Deep cleaning",
		Status:      shared.BookingStatusPending,
		TotalPrice:  decimal.RequireFromString("30.00"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestBookingGateway_GetBooking(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	gateway := &BookingGateway{querier: mock, logger: logger}
	principal := uuid.New()
	b := testBooking(principal)

	query := `
		SELECT id, user_id, service_name, status, total_price, created_at, updated_at
		FROM bookings
		WHERE id = \$1 AND user_id = \$2
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(bookingColumns).
			AddRow(b.ID, b.UserID, b.ServiceName, b.Status, b.TotalPrice, b.CreatedAt, b.UpdatedAt)

		mock.ExpectQuery(query).WithArgs(b.ID, principal).WillReturnRows(rows)

		got, err := gateway.GetBooking(ctx, b.ID, principal)
		assert.NoError(t, err)
		assert.Equal(t, b, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other principal's booking reads as not found", func(t *testing.T) {
		otherPrincipal := uuid.New()
		mock.ExpectQuery(query).WithArgs(b.ID, otherPrincipal).WillReturnError(pgx.ErrNoRows)

		got, err := gateway.GetBooking(ctx, b.ID, otherPrincipal)
		assert.Nil(t, got)
		var notFoundErr booking.ErrBookingNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, b.ID, notFoundErr.BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingGateway_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	gateway := &BookingGateway{querier: mock, logger: logger}
	principal := uuid.New()
	b := testBooking(principal)

	query := `
		SELECT id, user_id, service_name, status, total_price, created_at, updated_at
		FROM bookings
		WHERE id = \$1 AND user_id = \$2
		FOR UPDATE
	`

	rows := pgxmock.NewRows(bookingColumns).
		AddRow(b.ID, b.UserID, b.ServiceName, b.Status, b.TotalPrice, b.CreatedAt, b.UpdatedAt)

	mock.ExpectQuery(query).WithArgs(b.ID, principal).WillReturnRows(rows)

	got, err := gateway.LockForUpdate(ctx, b.ID, principal)
	assert.NoError(t, err)
	assert.Equal(t, b, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGateway_SetStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	gateway := &BookingGateway{querier: mock, logger: logger}
	id := uuid.New()

	query := `
		UPDATE bookings
		SET status = \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(shared.BookingStatusInProgress, id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := gateway.SetStatus(ctx, id, shared.BookingStatusInProgress)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(shared.BookingStatusInProgress, id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := gateway.SetStatus(ctx, id, shared.BookingStatusInProgress)
		var notFoundErr booking.ErrBookingNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
