package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// Unique constraints on the payments table. Create maps violations to typed
// errors by name so callers can tell a replayed request from a collision.
const (
	paymentIdempotencyKeyConstraint = "payments_idempotency_key_key"
	paymentInvoiceNumberConstraint  = "payments_invoice_number_key"
	paymentActiveBookingConstraint  = "payments_booking_active_idx"
)

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a payment row, translating unique-constraint violations into
// the typed duplicate errors the service layer branches on.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, method, amount, status, invoice_number, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.BookingID,
		p.Method,
		p.Amount,
		p.Status,
		p.InvoiceNumber,
		p.IdempotencyKey,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		switch persistence.UniqueViolationConstraint(err) {
		case paymentIdempotencyKeyConstraint:
			return payment.ErrDuplicateIdempotencyKey{Key: p.IdempotencyKey}
		case paymentInvoiceNumberConstraint:
			return payment.ErrDuplicateInvoiceNumber{InvoiceNumber: p.InvoiceNumber}
		case paymentActiveBookingConstraint:
			return payment.ErrDuplicateActivePayment{BookingID: p.BookingID}
		}
		r.logger.Error("Failed to create payment", "booking_id", p.BookingID.String(), "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT id, booking_id, method, amount, status, invoice_number, idempotency_key, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	return r.scanOne(ctx, query, id)
}

// GetByIdempotencyKey retrieves the payment recorded for a client-supplied
// key. Used to return the original result on a replayed request.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	query := `
		SELECT id, booking_id, method, amount, status, invoice_number, idempotency_key, created_at, updated_at
		FROM payments
		WHERE idempotency_key = $1
	`

	return r.scanOne(ctx, query, key)
}

// LockForUpdate obtains a pessimistic lock on the payment row, scoped to
// payments whose booking belongs to the principal. Must be used within a
// transaction.
func (r *PaymentRepository) LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.method, p.amount, p.status, p.invoice_number, p.idempotency_key, p.created_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.id = $1 AND b.user_id = $2
		FOR UPDATE OF p
	`

	return r.scanOne(ctx, query, id, principal)
}

// UpdateStatus transitions the payment to the given status
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update payment status", "id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound{PaymentID: id}
	}

	return nil
}

// ListByPrincipal retrieves a page of the principal's payments, newest first
func (r *PaymentRepository) ListByPrincipal(ctx context.Context, principal uuid.UUID, filter payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.method, p.amount, p.status, p.invoice_number, p.idempotency_key, p.created_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.user_id = $1
	`
	args := []interface{}{principal}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		query += fmt.Sprintf(" AND p.method = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payments", "principal", principal.String(), "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		err := rows.Scan(
			&p.ID,
			&p.BookingID,
			&p.Method,
			&p.Amount,
			&p.Status,
			&p.InvoiceNumber,
			&p.IdempotencyKey,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan payment", "error", err)
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payments", "error", err)
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

// CountByPrincipal counts the principal's payments matching the filter
func (r *PaymentRepository) CountByPrincipal(ctx context.Context, principal uuid.UUID, filter payment.Filter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.user_id = $1
	`
	args := []interface{}{principal}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		query += fmt.Sprintf(" AND p.method = $%d", len(args))
	}

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count payments", "principal", principal.String(), "error", err)
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}

// GetByIDForPrincipal retrieves a payment only when its booking belongs to
// the principal; other users' payments read as not found.
func (r *PaymentRepository) GetByIDForPrincipal(ctx context.Context, id, principal uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.method, p.amount, p.status, p.invoice_number, p.idempotency_key, p.created_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.id = $1 AND b.user_id = $2
	`

	return r.scanOne(ctx, query, id, principal)
}

func (r *PaymentRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*payment.Payment, error) {
	var p payment.Payment
	err := r.querier.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.BookingID,
		&p.Method,
		&p.Amount,
		&p.Status,
		&p.InvoiceNumber,
		&p.IdempotencyKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{}
		}
		r.logger.Error("Failed to get payment", "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}
