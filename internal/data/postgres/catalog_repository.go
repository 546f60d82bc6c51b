package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// CatalogRepository implements the catalog.Repository interface for
// PostgreSQL. The catalog tables are owned by the content service; this
// repository only reads them.
type CatalogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCatalogRepository creates a new PostgreSQL catalog repository
func NewCatalogRepository(logger *slog.Logger, db *persistence.PostgresDB) catalog.Repository {
	return &CatalogRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetChapterByID retrieves a chapter with its pricing attributes
func (r *CatalogRepository) GetChapterByID(ctx context.Context, chapterID int64) (*catalog.Chapter, error) {
	query := `
		SELECT id, story_id, title, number, locked, price, created_at
		FROM chapters
		WHERE id = $1
	`

	var c catalog.Chapter
	err := r.querier.QueryRow(ctx, query, chapterID).Scan(
		&c.ID,
		&c.StoryID,
		&c.Title,
		&c.Number,
		&c.Locked,
		&c.Price,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrChapterNotFound{ChapterID: chapterID}
		}
		r.logger.Error("Failed to get chapter", "chapter_id", chapterID, "error", err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}

	return &c, nil
}

// GetUserByID retrieves a user account record
func (r *CatalogRepository) GetUserByID(ctx context.Context, userID int64) (*catalog.User, error) {
	query := `
		SELECT id, username, email, role, active, created_at
		FROM users
		WHERE id = $1
	`

	var u catalog.User
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrUserNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}
