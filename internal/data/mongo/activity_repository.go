// Package mongo provides MongoDB implementations of the domain repositories.
// The activity event store backs the admin feed and is written only by the
// activity processor.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the activity event collection in MongoDB
	ActivityCollectionName = "activity_events"
)

// ActivityRepository implements the activity.EventRepository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity event repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) activity.EventRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new activity event after checking for duplicates.
// Returns ErrDuplicateEvent if an event with the same ID was already
// recorded, which makes redelivered Kafka messages safe to replay.
func (r *ActivityRepository) Create(ctx context.Context, event *activity.Event) error {
	collection := r.db.Collection(ActivityCollectionName)

	existing, err := r.GetByEventID(ctx, event.EventID)
	if err != nil && !errors.Is(err, activity.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing activity event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing activity event: %w", err)
	}

	if existing != nil {
		return activity.ErrDuplicateEvent{EventID: event.EventID}
	}

	_, err = collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to create activity event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create activity event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an activity event by its ID.
// Returns ErrEventNotFound if no event was recorded with the given ID.
func (r *ActivityRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Event, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"event_id": eventID}
	var event activity.Event
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get activity event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get activity event: %w", err)
	}

	return &event, nil
}

// ListRecent retrieves paginated activity events across all users.
// Results are sorted by occurrence time in descending order (newest first).
func (r *ActivityRepository) ListRecent(ctx context.Context, limit, offset int) ([]*activity.Event, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

// ListByUserID retrieves paginated activity events for one user
func (r *ActivityRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*activity.Event, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit, offset)
}

func (r *ActivityRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*activity.Event, error) {
	collection := r.db.Collection(ActivityCollectionName)

	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list activity events", "error", err)
		return nil, fmt.Errorf("failed to list activity events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*activity.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode activity events", "error", err)
		return nil, fmt.Errorf("failed to decode activity events: %w", err)
	}

	return events, nil
}

// StatsByKind aggregates event counts and coin volume per event kind since
// the given time. Coin volume sums the absolute amount so spends and credits
// both contribute positively.
func (r *ActivityRepository) StatsByKind(ctx context.Context, since time.Time) ([]activity.KindStat, error) {
	collection := r.db.Collection(ActivityCollectionName)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"occurred_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$kind",
			"count": bson.M{"$sum": 1},
			"coins": bson.M{"$sum": bson.M{"$abs": "$amount"}},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate activity stats", "since", since, "error", err)
		return nil, fmt.Errorf("failed to aggregate activity stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []activity.KindStat
	if err := cursor.All(ctx, &stats); err != nil {
		r.logger.Error("Failed to decode activity stats", "error", err)
		return nil, fmt.Errorf("failed to decode activity stats: %w", err)
	}

	return stats, nil
}
