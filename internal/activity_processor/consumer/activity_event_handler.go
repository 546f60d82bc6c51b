// Package consumer bridges Kafka messages into the activity recording
// pipeline.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/novelreads-coin-ledger/internal/activity_processor/service"
	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/platform/messaging/producers"
)

// ActivityEventHandler handles incoming activity event messages from Kafka
type ActivityEventHandler struct {
	recordingService service.RecordingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewActivityEventHandler creates a new handler
func NewActivityEventHandler(
	logger *slog.Logger,
	recordingService service.RecordingService,
	producer producers.DeadLetterPublisher,
) *ActivityEventHandler {
	return &ActivityEventHandler{
		recordingService: recordingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages. Messages that cannot be decoded go
// to the DLQ so a poison message does not wedge the partition; recording
// failures are returned uncommitted for redelivery.
func (h *ActivityEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event activity.Event
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal activity event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received activity event for recording",
		"event_id", event.EventID.String(),
		"kind", string(event.Kind),
		"user_id", event.UserID,
	)

	if err := h.recordingService.RecordEvent(ctx, &event); err != nil {
		logger.Error("Failed to record activity event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("recording activity event %s failed: %w", event.EventID.String(), err)
	}

	logger.Debug("Successfully handled activity event", "event_id", event.EventID.String())
	return nil // Success, commit offset
}
