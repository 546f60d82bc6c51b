package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novelreads-coin-ledger/internal/domain/unlock"
)

func TestGrantRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &GrantRepository{querier: mock, logger: logger}

	grant := &unlock.Grant{
		UserID:     42,
		ChapterID:  9,
		CoinsSpent: 30,
		UnlockedAt: time.Now(),
	}

	query := `
		INSERT INTO unlocked_chapters \(user_id, chapter_id, coins_spent, unlocked_at\)
		VALUES \(\$1, \$2, \$3, \$4\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(grant.UserID, grant.ChapterID, grant.CoinsSpent, grant.UnlockedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		err := repo.Create(ctx, grant)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), grant.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate grant", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: uniqueViolation}
		mock.ExpectQuery(query).
			WithArgs(grant.UserID, grant.ChapterID, grant.CoinsSpent, grant.UnlockedAt).
			WillReturnError(pgErr)

		err := repo.Create(ctx, grant)
		assert.ErrorIs(t, err, unlock.ErrDuplicateGrant{})
		var dupErr unlock.ErrDuplicateGrant
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, grant.UserID, dupErr.UserID)
		assert.Equal(t, grant.ChapterID, dupErr.ChapterID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectQuery(query).
			WithArgs(grant.UserID, grant.ChapterID, grant.CoinsSpent, grant.UnlockedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, grant)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create unlock grant")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGrantRepository_Exists(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &GrantRepository{querier: mock, logger: logger}
	userID, chapterID := int64(42), int64(9)

	query := `
		SELECT EXISTS \(
			SELECT 1 FROM unlocked_chapters
			WHERE user_id = \$1 AND chapter_id = \$2
		\)
	`

	t.Run("grant exists", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID, chapterID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.Exists(ctx, userID, chapterID)
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no grant", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID, chapterID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.Exists(ctx, userID, chapterID)
		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("exists db error")
		mock.ExpectQuery(query).WithArgs(userID, chapterID).WillReturnError(dbErr)

		exists, err := repo.Exists(ctx, userID, chapterID)
		assert.Error(t, err)
		assert.False(t, exists)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGrantRepository_ListByUserID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &GrantRepository{querier: mock, logger: logger}
	userID := int64(42)
	now := time.Now()

	query := `
		SELECT id, user_id, chapter_id, coins_spent, unlocked_at
		FROM unlocked_chapters
		WHERE user_id = \$1
		ORDER BY unlocked_at DESC
	`

	t.Run("returns grants newest first", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(
			pgxmock.NewRows([]string{"id", "user_id", "chapter_id", "coins_spent", "unlocked_at"}).
				AddRow(int64(2), userID, int64(10), int64(30), now).
				AddRow(int64(1), userID, int64(9), int64(25), now.Add(-time.Hour)))

		grants, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, grants, 2)
		assert.Equal(t, int64(10), grants[0].ChapterID)
		assert.Equal(t, int64(9), grants[1].ChapterID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(
			pgxmock.NewRows([]string{"id", "user_id", "chapter_id", "coins_spent", "unlocked_at"}))

		grants, err := repo.ListByUserID(ctx, userID)
		assert.NoError(t, err)
		assert.Empty(t, grants)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
