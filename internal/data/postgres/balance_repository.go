// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the coin ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// BalanceRepository implements the coin.BalanceRepository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBalanceRepository creates a new PostgreSQL balance repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) coin.BalanceRepository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *BalanceRepository) WithTx(tx pgx.Tx) coin.BalanceRepository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByUserID retrieves the balance row for a user without locking it
func (r *BalanceRepository) GetByUserID(ctx context.Context, userID int64) (*coin.Balance, error) {
	query := `
		SELECT user_id, coins, version, created_at, updated_at
		FROM user_balances
		WHERE user_id = $1
	`

	var b coin.Balance
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&b.UserID,
		&b.Coins,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coin.ErrBalanceNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get balance", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &b, nil
}

// UpsertForUpdate creates the balance row if it does not exist yet and returns
// it locked for the duration of the surrounding transaction. The insert and
// the locking select are separate statements so a concurrent first-time writer
// blocks on the row lock instead of failing.
func (r *BalanceRepository) UpsertForUpdate(ctx context.Context, userID int64) (*coin.Balance, error) {
	insert := `
		INSERT INTO user_balances (user_id, coins, version, created_at, updated_at)
		VALUES ($1, 0, 1, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.querier.Exec(ctx, insert, userID); err != nil {
		r.logger.Error("Failed to upsert balance", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to upsert balance: %w", err)
	}

	query := `
		SELECT user_id, coins, version, created_at, updated_at
		FROM user_balances
		WHERE user_id = $1
		FOR UPDATE
	`

	var b coin.Balance
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&b.UserID,
		&b.Coins,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to lock balance for update", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to lock balance for update: %w", err)
	}

	return &b, nil
}

// Update persists a mutated balance using an optimistic version check.
// Returns ErrConcurrentModification if the row changed since it was read.
func (r *BalanceRepository) Update(ctx context.Context, balance *coin.Balance) error {
	query := `
		UPDATE user_balances
		SET coins = $1, version = $2, updated_at = $3
		WHERE user_id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		balance.Coins,
		balance.Version,
		balance.UpdatedAt,
		balance.UserID,
		balance.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update balance", "user_id", balance.UserID, "error", err)
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return coin.ErrConcurrentModification{UserID: balance.UserID}
	}

	return nil
}
