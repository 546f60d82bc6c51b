package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// EntryRepository implements the coin.EntryRepository interface for PostgreSQL
type EntryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEntryRepository creates a new PostgreSQL transaction log repository
func NewEntryRepository(logger *slog.Logger, db *persistence.PostgresDB) coin.EntryRepository {
	return &EntryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so a log entry commits
// atomically with the balance mutation it describes.
func (r *EntryRepository) WithTx(tx pgx.Tx) coin.EntryRepository {
	return &EntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an entry to the transaction log
func (r *EntryRepository) Create(ctx context.Context, entry *coin.Entry) error {
	query := `
		INSERT INTO coin_transactions (user_id, type, amount, balance_before, balance_after, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.UserID,
		entry.Type,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Description,
		entry.ReferenceID,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		r.logger.Error("Failed to create transaction log entry", "user_id", entry.UserID, "error", err)
		return fmt.Errorf("failed to create transaction log entry: %w", err)
	}

	return nil
}

// ListByUserID retrieves a page of log entries for a user, newest first
func (r *EntryRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*coin.Entry, error) {
	query := `
		SELECT id, user_id, type, amount, balance_before, balance_after, description, reference_id, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transaction log entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list transaction log entries: %w", err)
	}
	defer rows.Close()

	var entries []*coin.Entry
	for rows.Next() {
		var entry coin.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Type,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.Description,
			&entry.ReferenceID,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan transaction log entry", "error", err)
			return nil, fmt.Errorf("failed to scan transaction log entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transaction log entries", "error", err)
		return nil, fmt.Errorf("error iterating over transaction log entries: %w", err)
	}

	return entries, nil
}

// CountByUserID returns the total number of log entries for a user
func (r *EntryRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM coin_transactions
		WHERE user_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transaction log entries", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count transaction log entries: %w", err)
	}

	return count, nil
}
