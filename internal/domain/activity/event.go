// Package activity models the coin activity events streamed to the admin
// feed. Events are emitted through a transactional outbox alongside the
// ledger mutation they describe and recorded in MongoDB by the activity
// processor.
package activity

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies activity events
type Kind string

const (
	KindCoinCredit       Kind = "coin_credit"
	KindCoinSpend        Kind = "coin_spend"
	KindChapterUnlock    Kind = "chapter_unlock"
	KindPaymentCompleted Kind = "payment_completed"
	KindPaymentFailed    Kind = "payment_failed"
)

// Event is one coin activity record. EventID is assigned at emission time and
// makes recording idempotent across redeliveries.
type Event struct {
	EventID       uuid.UUID `json:"event_id" bson:"event_id"`
	Kind          Kind      `json:"kind" bson:"kind"`
	UserID        int64     `json:"user_id" bson:"user_id"`
	Amount        int64     `json:"amount" bson:"amount"`
	BalanceAfter  int64     `json:"balance_after" bson:"balance_after"`
	ChapterID     int64     `json:"chapter_id,omitempty" bson:"chapter_id,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
}

// NewEvent creates an activity event with a fresh event ID
func NewEvent(kind Kind, userID, amount, balanceAfter int64) *Event {
	return &Event{
		EventID:      uuid.New(),
		Kind:         kind,
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		OccurredAt:   time.Now(),
	}
}

// KindStat is one bucket of the admin stats aggregation
type KindStat struct {
	Kind  Kind  `json:"kind" bson:"_id"`
	Count int64 `json:"count" bson:"count"`
	Coins int64 `json:"coins" bson:"coins"`
}
