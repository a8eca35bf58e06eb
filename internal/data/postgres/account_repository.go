// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the payment core.
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

// AccountRepository implements the wallet.AccountRepository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL wallet account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.AccountRepository {
	return &AccountRepository{
		querier: db.Pool(), // Initialize with the pool
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) wallet.AccountRepository {
	return &AccountRepository{
		querier: tx, // Use the transaction
		logger:  r.logger,
	}
}

// GetOrCreate returns the user's wallet, creating an empty one on first use.
// The insert is a no-op when the wallet already exists, so concurrent first
// uses converge on the same row.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	if err := r.ensureExists(ctx, userID); err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

// GetByUserID retrieves a wallet account by its owner
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	query := `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
	`

	var acc wallet.Account
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&acc.UserID,
		&acc.Balance,
		&acc.Currency,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrAccountNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get wallet account", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet account: %w", err)
	}

	return &acc, nil
}

// LockForUpdate obtains a pessimistic lock on the wallet balance row and
// returns its current state, creating the wallet first when the user has none
// yet. Must be used within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	if err := r.ensureExists(ctx, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, balance, currency, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
		FOR UPDATE
	`

	var acc wallet.Account
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&acc.UserID,
		&acc.Balance,
		&acc.Currency,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrAccountNotFound{UserID: userID}
		}
		r.logger.Error("Failed to lock wallet account", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet account: %w", err)
	}

	return &acc, nil
}

// UpdateBalance persists the balance computed while holding the row lock
func (r *AccountRepository) UpdateBalance(ctx context.Context, acc *wallet.Account) error {
	query := `
		UPDATE wallet_accounts
		SET balance = $1, updated_at = $2
		WHERE user_id = $3
	`

	result, err := r.querier.Exec(ctx, query, acc.Balance, acc.UpdatedAt, acc.UserID)
	if err != nil {
		r.logger.Error("Failed to update wallet balance", "user_id", acc.UserID.String(), "error", err)
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrAccountNotFound{UserID: acc.UserID}
	}

	return nil
}

// ensureExists inserts an empty wallet, doing nothing when one already exists
func (r *AccountRepository) ensureExists(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO wallet_accounts (user_id, balance, currency, created_at, updated_at)
		VALUES ($1, 0, 'USD', NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.querier.Exec(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to create wallet account", "user_id", userID.String(), "error", err)
		return fmt.Errorf("failed to create wallet account: %w", err)
	}

	return nil
}
