package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/novelreads-coin-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// ActivityEventProducer publishes coin activity events from the outbox
// poller to the activity topic. Writes are synchronous so the poller only
// marks an outbox row processed after the broker acknowledged the event.
type ActivityEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewActivityEventProducer creates the activity event producer and ensures the topic exists
func NewActivityEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ActivityEventProducer, error) {
	if cfg.ActivityTopic == "" {
		return nil, fmt.Errorf("kafka activity topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for activity producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.ActivityTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure activity topic %s exists: %w", cfg.ActivityTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ActivityTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write activity events", "topic", cfg.ActivityTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote activity events", "topic", cfg.ActivityTopic, "count", len(messages))
			}
		},
	}

	return &ActivityEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ActivityTopic,
	}, nil
}

func (p *ActivityEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish activity event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish activity event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published activity event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ActivityEventProducer) Close() error {
	p.logger.Info("Closing activity event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close activity kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
