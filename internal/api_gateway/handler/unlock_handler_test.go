package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	domain "github.com/novelreads-coin-ledger/internal/domain/unlock"
	"github.com/novelreads-coin-ledger/internal/unlock"
)

type MockUnlockService struct {
	mock.Mock
}

func (m *MockUnlockService) UnlockChapter(ctx context.Context, userID, chapterID int64, correlationID string) (*unlock.Result, error) {
	args := m.Called(ctx, userID, chapterID, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*unlock.Result), args.Error(1)
}

func (m *MockUnlockService) IsChapterUnlocked(ctx context.Context, userID, chapterID int64) (bool, error) {
	args := m.Called(ctx, userID, chapterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUnlockService) ListUnlocked(ctx context.Context, userID int64) ([]*domain.Grant, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Grant), args.Error(1)
}

func (m *MockUnlockService) ListUnlockedByStory(ctx context.Context, userID, storyID int64) ([]*domain.Grant, error) {
	args := m.Called(ctx, userID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Grant), args.Error(1)
}

func TestUnlockHandler_Unlock(t *testing.T) {
	chapter := &catalog.Chapter{ID: 7, StoryID: 3, Title: "Chapter Seven", Number: 7, Locked: true, Price: 30}

	t.Run("unlocks chapter and reports remaining coins", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("UnlockChapter", mock.Anything, testUserID, int64(7), mock.Anything).Return(&unlock.Result{
			Grant:          &domain.Grant{UserID: testUserID, ChapterID: 7, CoinsSpent: 30},
			Chapter:        chapter,
			CoinsRemaining: 70,
		}, nil)

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/7/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body UnlockResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.True(t, body.Success)
		assert.False(t, body.AlreadyUnlocked)
		assert.Equal(t, int64(30), body.CoinsSpent)
		assert.Equal(t, int64(70), body.CoinsRemaining)
		svc.AssertExpectations(t)
	})

	t.Run("already unlocked chapter spends nothing", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("UnlockChapter", mock.Anything, testUserID, int64(7), mock.Anything).Return(&unlock.Result{
			Chapter:         chapter,
			AlreadyUnlocked: true,
		}, nil)

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/7/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body UnlockResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.True(t, body.Success)
		assert.True(t, body.AlreadyUnlocked)
		assert.Zero(t, body.CoinsSpent)
	})

	t.Run("insufficient coins returns 402", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("UnlockChapter", mock.Anything, testUserID, int64(7), mock.Anything).Return(nil, coin.ErrInsufficientCoins)

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/7/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusPaymentRequired, rr.Code)
		assert.Contains(t, rr.Body.String(), "INSUFFICIENT_COINS")
	})

	t.Run("unknown chapter returns 404", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("UnlockChapter", mock.Anything, testUserID, int64(99), mock.Anything).Return(nil, catalog.ErrChapterNotFound{ChapterID: 99})

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/99/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid chapter id returns 400", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/abc/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "UnlockChapter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service failure returns 500", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("UnlockChapter", mock.Anything, testUserID, int64(7), mock.Anything).Return(nil, errors.New("db down"))

		router := setupTestRouter()
		router.POST("/chapters/:id/unlock", h.Unlock)

		req, _ := http.NewRequest(http.MethodPost, "/chapters/7/unlock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUnlockHandler_UnlockStatus(t *testing.T) {
	t.Run("reports unlocked chapter", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("IsChapterUnlocked", mock.Anything, testUserID, int64(7)).Return(true, nil)

		router := setupTestRouter()
		router.GET("/chapters/:id/unlock-status", h.UnlockStatus)

		req, _ := http.NewRequest(http.MethodGet, "/chapters/7/unlock-status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body UnlockStatusResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.True(t, body.Unlocked)
	})

	t.Run("chapter without a grant reports locked", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("IsChapterUnlocked", mock.Anything, testUserID, int64(999)).Return(false, nil)

		router := setupTestRouter()
		router.GET("/chapters/:id/unlock-status", h.UnlockStatus)

		req, _ := http.NewRequest(http.MethodGet, "/chapters/999/unlock-status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body UnlockStatusResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.False(t, body.Unlocked)
	})
}

func TestUnlockHandler_ListUnlocked(t *testing.T) {
	t.Run("lists all grants", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		grants := []*domain.Grant{
			{UserID: testUserID, ChapterID: 7, CoinsSpent: 30},
			{UserID: testUserID, ChapterID: 5, CoinsSpent: 25},
		}
		svc.On("ListUnlocked", mock.Anything, testUserID).Return(grants, nil)

		router := setupTestRouter()
		router.GET("/chapters/unlocked", h.ListUnlocked)

		req, _ := http.NewRequest(http.MethodGet, "/chapters/unlocked", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body []GrantResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.Len(t, body, 2)
	})

	t.Run("filters by story", func(t *testing.T) {
		svc := new(MockUnlockService)
		h := NewUnlockHandler(handlerTestLogger(), svc)

		svc.On("ListUnlockedByStory", mock.Anything, testUserID, int64(3)).Return([]*domain.Grant{
			{UserID: testUserID, ChapterID: 7, CoinsSpent: 30},
		}, nil)

		router := setupTestRouter()
		router.GET("/chapters/unlocked", h.ListUnlocked)

		req, _ := http.NewRequest(http.MethodGet, "/chapters/unlocked?story_id=3", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}
