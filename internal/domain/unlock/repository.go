package unlock

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository manages unlock grant persistence. The grant table carries a
// UNIQUE(user_id, chapter_id) constraint; Create surfaces a violation as
// ErrDuplicateGrant so the surrounding transaction can roll the paired debit
// back.
type Repository interface {
	Create(ctx context.Context, grant *Grant) error
	Exists(ctx context.Context, userID, chapterID int64) (bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Grant, error)
	ListByUserAndStory(ctx context.Context, userID, storyID int64) ([]*Grant, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateGrant indicates the (user, chapter) pair already holds a grant
type ErrDuplicateGrant struct {
	UserID    int64
	ChapterID int64
}

func (e ErrDuplicateGrant) Error() string {
	return "chapter " + strconv.FormatInt(e.ChapterID, 10) +
		" already unlocked for user " + strconv.FormatInt(e.UserID, 10)
}

// Is matches any ErrDuplicateGrant when the target carries zero identifiers
func (e ErrDuplicateGrant) Is(target error) bool {
	t, ok := target.(ErrDuplicateGrant)
	if !ok {
		return false
	}
	if t.UserID == 0 && t.ChapterID == 0 {
		return true
	}
	return e.UserID == t.UserID && e.ChapterID == t.ChapterID
}
