// Package unlock holds the chapter unlock grant model. A grant records that a
// user paid to unlock a paywalled chapter; grants are permanent and unique per
// (user, chapter) pair.
package unlock

import "time"

// Grant is one permanent unlock record. It is created only by a successful
// debit and never deleted, even if the chapter is later re-locked.
type Grant struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ChapterID  int64     `json:"chapter_id"`
	CoinsSpent int64     `json:"coins_spent"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// NewGrant records a paid unlock of a chapter
func NewGrant(userID, chapterID, coinsSpent int64) *Grant {
	return &Grant{
		UserID:     userID,
		ChapterID:  chapterID,
		CoinsSpent: coinsSpent,
		UnlockedAt: time.Now(),
	}
}
