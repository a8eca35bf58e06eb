package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

const refundIdempotencyKeyConstraint = "refunds_idempotency_key_key"

// RefundRepository implements the payment.RefundRepository interface for PostgreSQL
type RefundRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRefundRepository creates a new PostgreSQL refund repository
func NewRefundRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.RefundRepository {
	return &RefundRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *RefundRepository) WithTx(tx pgx.Tx) payment.RefundRepository {
	return &RefundRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a refund row. A replayed idempotency key surfaces as
// payment.ErrDuplicateIdempotencyKey.
func (r *RefundRepository) Create(ctx context.Context, ref *payment.Refund) error {
	query := `
		INSERT INTO refunds (id, payment_id, amount, reason, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		ref.ID,
		ref.PaymentID,
		ref.Amount,
		ref.Reason,
		ref.IdempotencyKey,
		ref.CreatedAt,
	)
	if err != nil {
		if persistence.UniqueViolationConstraint(err) == refundIdempotencyKeyConstraint {
			return payment.ErrDuplicateIdempotencyKey{Key: ref.IdempotencyKey}
		}
		r.logger.Error("Failed to create refund", "payment_id", ref.PaymentID.String(), "error", err)
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

// GetByIdempotencyKey retrieves the refund recorded for a client-supplied key
func (r *RefundRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Refund, error) {
	query := `
		SELECT id, payment_id, amount, reason, idempotency_key, created_at
		FROM refunds
		WHERE idempotency_key = $1
	`

	var ref payment.Refund
	err := r.querier.QueryRow(ctx, query, key).Scan(
		&ref.ID,
		&ref.PaymentID,
		&ref.Amount,
		&ref.Reason,
		&ref.IdempotencyKey,
		&ref.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrRefundNotFound{Key: key}
		}
		r.logger.Error("Failed to get refund by idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get refund by idempotency key: %w", err)
	}

	return &ref, nil
}
