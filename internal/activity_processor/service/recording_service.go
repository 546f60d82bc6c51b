// Package service implements activity event recording for the admin feed.
// Events arrive from Kafka at least once; recording is idempotent on the
// event ID.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
)

type recordingService struct {
	events activity.EventRepository
	logger *slog.Logger
}

// NewRecordingService creates the base recording service
func NewRecordingService(logger *slog.Logger, events activity.EventRepository) RecordingService {
	return &recordingService{
		events: events,
		logger: logger,
	}
}

// RecordEvent stores one activity event. A duplicate event ID means the
// message was redelivered after a successful write; it is acknowledged
// without a second insert.
func (s *recordingService) RecordEvent(ctx context.Context, event *activity.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, activity.ErrDuplicateEvent{}) {
			logger.Info("Activity event already recorded, skipping",
				"event_id", event.EventID.String(),
				"kind", string(event.Kind),
			)
			return nil
		}
		return fmt.Errorf("failed to record activity event %s: %w", event.EventID, err)
	}

	logger.Info("Recorded activity event",
		"event_id", event.EventID.String(),
		"kind", string(event.Kind),
		"user_id", event.UserID,
	)
	return nil
}
