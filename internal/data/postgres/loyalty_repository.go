package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// LoyaltyRepository implements the loyalty.Repository interface for PostgreSQL
type LoyaltyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoyaltyRepository creates a new PostgreSQL loyalty points repository
func NewLoyaltyRepository(logger *slog.Logger, db *persistence.PostgresDB) loyalty.Repository {
	return &LoyaltyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *LoyaltyRepository) WithTx(tx pgx.Tx) loyalty.Repository {
	return &LoyaltyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a signed points movement to the log
func (r *LoyaltyRepository) Create(ctx context.Context, entry *loyalty.Entry) error {
	query := `
		INSERT INTO loyalty_points (user_id, points, source_request_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.UserID,
		entry.Points,
		entry.SourceRequestID,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		r.logger.Error("Failed to create loyalty points entry", "user_id", entry.UserID.String(), "error", err)
		return fmt.Errorf("failed to create loyalty points entry: %w", err)
	}

	return nil
}

// SumByUserID computes the user's current point balance over the log
func (r *LoyaltyRepository) SumByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(points), 0)
		FROM loyalty_points
		WHERE user_id = $1
	`

	var sum int
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum loyalty points", "user_id", userID.String(), "error", err)
		return 0, fmt.Errorf("failed to sum loyalty points: %w", err)
	}

	return sum, nil
}

// ListByUserID retrieves a page of the user's points history, newest first
func (r *LoyaltyRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*loyalty.Entry, error) {
	query := `
		SELECT id, user_id, points, source_request_id, created_at
		FROM loyalty_points
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list loyalty points entries", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list loyalty points entries: %w", err)
	}
	defer rows.Close()

	var entries []*loyalty.Entry
	for rows.Next() {
		var entry loyalty.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Points,
			&entry.SourceRequestID,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan loyalty points entry", "error", err)
			return nil, fmt.Errorf("failed to scan loyalty points entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over loyalty points entries", "error", err)
		return nil, fmt.Errorf("error iterating over loyalty points entries: %w", err)
	}

	return entries, nil
}

// AcquireUserLock takes a transaction-scoped advisory lock keyed on the user.
// The points log has no balance row to lock, so redemptions serialize on this
// lock to keep the sufficiency check and the insert atomic. Must be used
// within a transaction; the lock releases on commit or rollback.
func (r *LoyaltyRepository) AcquireUserLock(ctx context.Context, userID uuid.UUID) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	if _, err := r.querier.Exec(ctx, query, userID); err != nil {
		r.logger.Error("Failed to acquire loyalty user lock", "user_id", userID.String(), "error", err)
		return fmt.Errorf("failed to acquire loyalty user lock: %w", err)
	}

	return nil
}
