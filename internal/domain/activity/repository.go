package activity

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OutboxRepository manages transactional outbox message persistence
type OutboxRepository interface {
	Create(ctx context.Context, message *OutboxMessage) error
	GetPending(ctx context.Context, limit int) ([]*OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) OutboxRepository
}

// EventRepository records activity events in the document store. Create must
// be idempotent on EventID so redelivered Kafka messages do not duplicate
// feed entries.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Event, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*Event, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Event, error)
	StatsByKind(ctx context.Context, since time.Time) ([]KindStat, error)
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// ErrEventNotFound indicates no recorded event for the ID
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "activity event not found: " + e.EventID.String()
}

// Is matches any ErrEventNotFound when the target carries a zero ID
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}

// ErrDuplicateEvent indicates the event was already recorded
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate activity event: " + e.EventID.String()
}

// Is matches any ErrDuplicateEvent when the target carries a zero ID
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
