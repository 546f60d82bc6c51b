package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus tracks the publishing state of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// OutboxMessage stores an activity event for reliable publishing. Rows are
// written in the same transaction as the ledger mutation they describe.
type OutboxMessage struct {
	ID            int64           `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	UserID        int64           `json:"user_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewOutboxMessage(event *Event) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		EventID:   event.EventID,
		UserID:    event.UserID,
		Payload:   payload,
		Status:    OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *OutboxMessage) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *OutboxMessage) MarkAsProcessed() {
	m.Status = OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *OutboxMessage) MarkAsFailed() {
	m.Status = OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetEvent extracts the activity event from the payload
func (m *OutboxMessage) GetEvent() (*Event, error) {
	var event Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
