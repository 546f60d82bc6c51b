package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Event), args.Error(1)
}

func (m *MockEventRepository) ListRecent(ctx context.Context, limit, offset int) ([]*activity.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Event), args.Error(1)
}

func (m *MockEventRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*activity.Event, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Event), args.Error(1)
}

func (m *MockEventRepository) StatsByKind(ctx context.Context, since time.Time) ([]activity.KindStat, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]activity.KindStat), args.Error(1)
}

func TestAdminHandler_ActivityFeed(t *testing.T) {
	t.Run("returns recent events", func(t *testing.T) {
		events := new(MockEventRepository)
		h := NewAdminHandler(handlerTestLogger(), events)

		feed := []*activity.Event{
			activity.NewEvent(activity.KindChapterUnlock, 42, -30, 70),
			activity.NewEvent(activity.KindCoinCredit, 7, 1050, 1050),
		}
		events.On("ListRecent", mock.Anything, 50, 0).Return(feed, nil)

		router := setupTestRouter()
		router.GET("/admin/activity", h.ActivityFeed)

		req, _ := http.NewRequest(http.MethodGet, "/admin/activity", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body []ActivityEventResponse
		decodeData(t, rr.Body.Bytes(), &body)
		require.Len(t, body, 2)
		assert.Equal(t, string(activity.KindChapterUnlock), body[0].Kind)
		assert.Equal(t, int64(-30), body[0].Amount)
	})

	t.Run("honors limit and offset", func(t *testing.T) {
		events := new(MockEventRepository)
		h := NewAdminHandler(handlerTestLogger(), events)

		events.On("ListRecent", mock.Anything, 5, 10).Return([]*activity.Event{}, nil)

		router := setupTestRouter()
		router.GET("/admin/activity", h.ActivityFeed)

		req, _ := http.NewRequest(http.MethodGet, "/admin/activity?limit=5&offset=10", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		events.AssertExpectations(t)
	})

	t.Run("rejects out of range limit", func(t *testing.T) {
		events := new(MockEventRepository)
		h := NewAdminHandler(handlerTestLogger(), events)

		router := setupTestRouter()
		router.GET("/admin/activity", h.ActivityFeed)

		req, _ := http.NewRequest(http.MethodGet, "/admin/activity?limit=5000", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		events.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminHandler_Stats(t *testing.T) {
	events := new(MockEventRepository)
	h := NewAdminHandler(handlerTestLogger(), events)

	stats := []activity.KindStat{
		{Kind: activity.KindCoinSpend, Count: 120, Coins: 3600},
		{Kind: activity.KindCoinCredit, Count: 40, Coins: 42000},
	}
	events.On("StatsByKind", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		return since.Before(time.Now())
	})).Return(stats, nil)

	router := setupTestRouter()
	router.GET("/admin/stats", h.Stats)

	req, _ := http.NewRequest(http.MethodGet, "/admin/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body []KindStatResponse
	decodeData(t, rr.Body.Bytes(), &body)
	require.Len(t, body, 2)
	assert.Equal(t, int64(120), body[0].Count)
	assert.Equal(t, int64(3600), body[0].Coins)
}
