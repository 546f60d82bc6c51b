// Package unlock implements chapter unlocking. An unlock debits the chapter
// price and records a permanent grant in one transaction; the unique grant
// constraint makes concurrent double unlocks spend coins exactly once.
package unlock

import (
	"context"

	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	domain "github.com/novelreads-coin-ledger/internal/domain/unlock"
)

// Result reports the outcome of an unlock attempt. AlreadyUnlocked is true
// when the user held a grant before the call; no coins were spent.
type Result struct {
	Grant           *domain.Grant
	Chapter         *catalog.Chapter
	AlreadyUnlocked bool
	CoinsRemaining  int64
}

// Service defines chapter unlock operations
type Service interface {
	UnlockChapter(ctx context.Context, userID, chapterID int64, correlationID string) (*Result, error)
	IsChapterUnlocked(ctx context.Context, userID, chapterID int64) (bool, error)
	ListUnlocked(ctx context.Context, userID int64) ([]*domain.Grant, error)
	ListUnlockedByStory(ctx context.Context, userID, storyID int64) ([]*domain.Grant, error)
}
