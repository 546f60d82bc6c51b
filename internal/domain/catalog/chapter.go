// Package catalog exposes the read-only slice of the content catalog the
// coin ledger needs: chapter pricing and user account flags. The catalog
// itself is owned by the content service; this package never writes to it.
package catalog

import (
	"strconv"
	"time"
)

// Chapter carries the pricing attributes of one chapter. A chapter is
// paywalled when Locked is true; Price is the coin cost to unlock it.
type Chapter struct {
	ID        int64     `json:"id"`
	StoryID   int64     `json:"story_id"`
	Title     string    `json:"title"`
	Number    int       `json:"number"`
	Locked    bool      `json:"locked"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Paywalled reports whether unlocking the chapter requires spending coins
func (c *Chapter) Paywalled() bool {
	return c.Locked && c.Price > 0
}

// ErrChapterNotFound indicates no chapter exists for the ID
type ErrChapterNotFound struct {
	ChapterID int64
}

func (e ErrChapterNotFound) Error() string {
	return "chapter not found: " + strconv.FormatInt(e.ChapterID, 10)
}

// Is matches any ErrChapterNotFound when the target carries a zero ID
func (e ErrChapterNotFound) Is(target error) bool {
	t, ok := target.(ErrChapterNotFound)
	if !ok {
		return false
	}
	if t.ChapterID == 0 {
		return true
	}
	return e.ChapterID == t.ChapterID
}
