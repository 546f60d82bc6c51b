package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/novelreads-coin-ledger/internal/domain/unlock"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// GrantRepository implements the unlock.Repository interface for PostgreSQL
type GrantRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewGrantRepository creates a new PostgreSQL unlock grant repository
func NewGrantRepository(logger *slog.Logger, db *persistence.PostgresDB) unlock.Repository {
	return &GrantRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the grant commits
// atomically with the coin debit that paid for it.
func (r *GrantRepository) WithTx(tx pgx.Tx) unlock.Repository {
	return &GrantRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new unlock grant. The UNIQUE(user_id, chapter_id)
// constraint turns a concurrent double unlock into ErrDuplicateGrant, which
// the unlock service uses to roll back the paired debit.
func (r *GrantRepository) Create(ctx context.Context, grant *unlock.Grant) error {
	query := `
		INSERT INTO unlocked_chapters (user_id, chapter_id, coins_spent, unlocked_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		grant.UserID,
		grant.ChapterID,
		grant.CoinsSpent,
		grant.UnlockedAt,
	).Scan(&grant.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return unlock.ErrDuplicateGrant{UserID: grant.UserID, ChapterID: grant.ChapterID}
		}
		r.logger.Error("Failed to create unlock grant",
			"user_id", grant.UserID,
			"chapter_id", grant.ChapterID,
			"error", err,
		)
		return fmt.Errorf("failed to create unlock grant: %w", err)
	}

	return nil
}

// Exists reports whether the user already holds a grant for the chapter
func (r *GrantRepository) Exists(ctx context.Context, userID, chapterID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM unlocked_chapters
			WHERE user_id = $1 AND chapter_id = $2
		)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, userID, chapterID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check unlock grant", "user_id", userID, "chapter_id", chapterID, "error", err)
		return false, fmt.Errorf("failed to check unlock grant: %w", err)
	}

	return exists, nil
}

// ListByUserID retrieves all grants held by a user, newest first
func (r *GrantRepository) ListByUserID(ctx context.Context, userID int64) ([]*unlock.Grant, error) {
	query := `
		SELECT id, user_id, chapter_id, coins_spent, unlocked_at
		FROM unlocked_chapters
		WHERE user_id = $1
		ORDER BY unlocked_at DESC
	`

	return r.list(ctx, query, userID)
}

// ListByUserAndStory retrieves the user's grants for chapters of one story
func (r *GrantRepository) ListByUserAndStory(ctx context.Context, userID, storyID int64) ([]*unlock.Grant, error) {
	query := `
		SELECT g.id, g.user_id, g.chapter_id, g.coins_spent, g.unlocked_at
		FROM unlocked_chapters g
		JOIN chapters c ON c.id = g.chapter_id
		WHERE g.user_id = $1 AND c.story_id = $2
		ORDER BY c.number ASC
	`

	return r.list(ctx, query, userID, storyID)
}

func (r *GrantRepository) list(ctx context.Context, query string, args ...interface{}) ([]*unlock.Grant, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list unlock grants", "error", err)
		return nil, fmt.Errorf("failed to list unlock grants: %w", err)
	}
	defer rows.Close()

	var grants []*unlock.Grant
	for rows.Next() {
		var grant unlock.Grant
		err := rows.Scan(
			&grant.ID,
			&grant.UserID,
			&grant.ChapterID,
			&grant.CoinsSpent,
			&grant.UnlockedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan unlock grant", "error", err)
			return nil, fmt.Errorf("failed to scan unlock grant: %w", err)
		}
		grants = append(grants, &grant)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over unlock grants", "error", err)
		return nil, fmt.Errorf("error iterating over unlock grants: %w", err)
	}

	return grants, nil
}
