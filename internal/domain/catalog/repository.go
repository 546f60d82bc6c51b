package catalog

import "context"

// Repository reads chapter and user records. All methods are lookups; the
// coin ledger treats the catalog as reference data.
type Repository interface {
	GetChapterByID(ctx context.Context, chapterID int64) (*Chapter, error)
	GetUserByID(ctx context.Context, userID int64) (*User, error)
}
