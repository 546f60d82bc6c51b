// Package outbox_poller drains the transactional outbox into Kafka. Rows are
// published at least once; downstream recording dedupes on event ID.
package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the activity topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *activity.OutboxMessage) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo activity.OutboxRepository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo activity.OutboxRepository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent decodes an outbox row, publishes the event to Kafka keyed by
// event ID, and marks the row processed. Undecodable rows are marked failed
// immediately; they would never publish no matter how often they retry.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *activity.OutboxMessage) error {
	var event activity.Event
	if err := json.Unmarshal(message.Payload, &event); err != nil {
		p.logger.Error("Failed to unmarshal activity event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, activity.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Publishing outbox message to activity topic", "outbox_id", message.ID, "event_id", message.EventID)

	if err := p.producer.Publish(ctx, event.EventID.String(), &event); err != nil {
		return fmt.Errorf("failed to publish activity event %s: %w", event.EventID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, activity.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("publish for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.EventID, message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED", "outbox_id", message.ID, "event_id", message.EventID)
	return nil
}
