package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// EntryRepository implements the wallet.EntryRepository interface for PostgreSQL
type EntryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEntryRepository creates a new PostgreSQL wallet ledger repository
func NewEntryRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.EntryRepository {
	return &EntryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the ledger entry is
// written atomically with the balance update it describes.
func (r *EntryRepository) WithTx(tx pgx.Tx) wallet.EntryRepository {
	return &EntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an immutable entry to the wallet ledger
func (r *EntryRepository) Create(ctx context.Context, entry *wallet.Entry) error {
	query := `
		INSERT INTO wallet_entries (user_id, kind, amount, balance_before, balance_after, reference, description, metadata, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.UserID,
		entry.Kind,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Reference,
		entry.Description,
		entry.Metadata,
		entry.Status,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		r.logger.Error("Failed to create wallet ledger entry",
			"user_id", entry.UserID.String(),
			"kind", string(entry.Kind),
			"error", err,
		)
		return fmt.Errorf("failed to create wallet ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves a single ledger entry
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*wallet.Entry, error) {
	query := `
		SELECT id, user_id, kind, amount, balance_before, balance_after, reference, description, metadata, status, created_at
		FROM wallet_entries
		WHERE id = $1
	`

	var entry wallet.Entry
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Kind,
		&entry.Amount,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.Reference,
		&entry.Description,
		&entry.Metadata,
		&entry.Status,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get wallet ledger entry", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get wallet ledger entry: %w", err)
	}

	return &entry, nil
}

// ListByUserID retrieves a page of the user's ledger history, newest first
func (r *EntryRepository) ListByUserID(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter, limit, offset int) ([]*wallet.Entry, error) {
	query := `
		SELECT id, user_id, kind, amount, balance_before, balance_after, reference, description, metadata, status, created_at
		FROM wallet_entries
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list wallet ledger entries", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list wallet ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*wallet.Entry
	for rows.Next() {
		var entry wallet.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Kind,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.Reference,
			&entry.Description,
			&entry.Metadata,
			&entry.Status,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan wallet ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan wallet ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over wallet ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over wallet ledger entries: %w", err)
	}

	return entries, nil
}

// CountByUserID counts the user's ledger entries matching the filter
func (r *EntryRepository) CountByUserID(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM wallet_entries WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count wallet ledger entries", "user_id", userID.String(), "error", err)
		return 0, fmt.Errorf("failed to count wallet ledger entries: %w", err)
	}

	return count, nil
}

// StatsByUserID aggregates the user's completed ledger history per kind
func (r *EntryRepository) StatsByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Stats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'topup'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'payment'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'refund'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'bonus'), 0),
			COUNT(*)
		FROM wallet_entries
		WHERE user_id = $1 AND status = 'completed'
	`

	var stats wallet.Stats
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&stats.TotalTopups,
		&stats.TotalPayments,
		&stats.TotalRefunds,
		&stats.TotalBonuses,
		&stats.EntryCount,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate wallet ledger stats", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to aggregate wallet ledger stats: %w", err)
	}

	return &stats, nil
}
