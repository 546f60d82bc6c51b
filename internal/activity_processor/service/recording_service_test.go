package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
)

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Event, error) {
	args := m.Called(ctx, eventID)
	if e, ok := args.Get(0).(*activity.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventRepository) ListRecent(ctx context.Context, limit, offset int) ([]*activity.Event, error) {
	args := m.Called(ctx, limit, offset)
	if events, ok := args.Get(0).([]*activity.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*activity.Event, error) {
	args := m.Called(ctx, userID, limit, offset)
	if events, ok := args.Get(0).([]*activity.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventRepository) StatsByKind(ctx context.Context, since time.Time) ([]activity.KindStat, error) {
	args := m.Called(ctx, since)
	if stats, ok := args.Get(0).([]activity.KindStat); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordingService_RecordEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("records new event", func(t *testing.T) {
		events := new(MockEventRepository)
		svc := NewRecordingService(testLogger(), events)

		event := activity.NewEvent(activity.KindCoinSpend, 42, -30, 70)
		events.On("Create", ctx, event).Return(nil)

		err := svc.RecordEvent(ctx, event)
		assert.NoError(t, err)
		events.AssertExpectations(t)
	})

	t.Run("redelivered event is acknowledged without error", func(t *testing.T) {
		events := new(MockEventRepository)
		svc := NewRecordingService(testLogger(), events)

		event := activity.NewEvent(activity.KindCoinCredit, 42, 100, 120)
		events.On("Create", ctx, event).Return(activity.ErrDuplicateEvent{EventID: event.EventID})

		err := svc.RecordEvent(ctx, event)
		assert.NoError(t, err)
	})

	t.Run("store failure propagates for redelivery", func(t *testing.T) {
		events := new(MockEventRepository)
		svc := NewRecordingService(testLogger(), events)

		storeErr := errors.New("mongo down")
		event := activity.NewEvent(activity.KindPaymentCompleted, 42, 500, 520)
		events.On("Create", ctx, event).Return(storeErr)

		err := svc.RecordEvent(ctx, event)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestWorkerPoolRecordingService(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the base service", func(t *testing.T) {
		events := new(MockEventRepository)
		base := NewRecordingService(testLogger(), events)

		pooled, err := NewWorkerPoolRecordingService(base, WorkerPoolConfig{Size: 2}, testLogger())
		require.NoError(t, err)
		defer pooled.Shutdown()

		event := activity.NewEvent(activity.KindCoinSpend, 42, -30, 70)
		events.On("Create", ctx, mock.MatchedBy(func(e *activity.Event) bool {
			return e.EventID == event.EventID
		})).Return(nil)

		err = pooled.RecordEvent(ctx, event)
		assert.NoError(t, err)
		assert.Equal(t, 2, pooled.Capacity())
	})

	t.Run("propagates recording errors", func(t *testing.T) {
		events := new(MockEventRepository)
		base := NewRecordingService(testLogger(), events)

		pooled, err := NewWorkerPoolRecordingService(base, WorkerPoolConfig{Size: 1}, testLogger())
		require.NoError(t, err)
		defer pooled.Shutdown()

		storeErr := errors.New("mongo down")
		events.On("Create", ctx, mock.Anything).Return(storeErr)

		err = pooled.RecordEvent(ctx, activity.NewEvent(activity.KindCoinCredit, 1, 10, 10))
		assert.ErrorIs(t, err, storeErr)
	})
}
