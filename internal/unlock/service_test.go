package unlock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	domain "github.com/novelreads-coin-ledger/internal/domain/unlock"
	"github.com/novelreads-coin-ledger/internal/ledger"
)

// --- Mocks ---

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Credit(ctx context.Context, req ledger.CreditRequest) (*coin.Entry, error) {
	args := m.Called(ctx, req)
	if e, ok := args.Get(0).(*coin.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) Debit(ctx context.Context, req ledger.DebitRequest) (*coin.Entry, error) {
	args := m.Called(ctx, req)
	if e, ok := args.Get(0).(*coin.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) ApplyCredit(ctx context.Context, tx pgx.Tx, req ledger.CreditRequest) (*coin.Entry, error) {
	args := m.Called(ctx, tx, req)
	if e, ok := args.Get(0).(*coin.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) ApplyDebit(ctx context.Context, tx pgx.Tx, req ledger.DebitRequest) (*coin.Entry, error) {
	args := m.Called(ctx, tx, req)
	if e, ok := args.Get(0).(*coin.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) UserCoins(ctx context.Context, userID int64) (*coin.Balance, error) {
	args := m.Called(ctx, userID)
	if b, ok := args.Get(0).(*coin.Balance); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) HasEnoughCoins(ctx context.Context, userID, amount int64) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID int64, limit, offset int) ([]*coin.Entry, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if entries, ok := args.Get(0).([]*coin.Entry); ok {
		return entries, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

type MockGrantRepository struct {
	mock.Mock
}

func (m *MockGrantRepository) Create(ctx context.Context, grant *domain.Grant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockGrantRepository) Exists(ctx context.Context, userID, chapterID int64) (bool, error) {
	args := m.Called(ctx, userID, chapterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGrantRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Grant, error) {
	args := m.Called(ctx, userID)
	if grants, ok := args.Get(0).([]*domain.Grant); ok {
		return grants, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGrantRepository) ListByUserAndStory(ctx context.Context, userID, storyID int64) ([]*domain.Grant, error) {
	args := m.Called(ctx, userID, storyID)
	if grants, ok := args.Get(0).([]*domain.Grant); ok {
		return grants, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGrantRepository) WithTx(tx pgx.Tx) domain.Repository {
	return m
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetChapterByID(ctx context.Context, chapterID int64) (*catalog.Chapter, error) {
	args := m.Called(ctx, chapterID)
	if c, ok := args.Get(0).(*catalog.Chapter); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogRepository) GetUserByID(ctx context.Context, userID int64) (*catalog.User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*catalog.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *activity.OutboxMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*activity.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	if messages, ok := args.Get(0).([]*activity.OutboxMessage); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status activity.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) activity.OutboxRepository {
	return m
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func paidChapter(id, storyID, price int64) *catalog.Chapter {
	return &catalog.Chapter{
		ID:        id,
		StoryID:   storyID,
		Title:     "The Long Night",
		Number:    int(id),
		Locked:    true,
		Price:     price,
		CreatedAt: time.Now(),
	}
}

func newTestService(ledgerSvc *MockLedgerService, grants *MockGrantRepository, catalogRepo *MockCatalogRepository, outbox *MockOutboxRepository) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, &fakeTxRunner{}, ledgerSvc, grants, catalogRepo, outbox)
}

// --- Tests ---

func TestUnlockService_UnlockChapter(t *testing.T) {
	ctx := context.Background()

	t.Run("debits price and records grant", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		catalogRepo.On("GetChapterByID", ctx, int64(9)).Return(paidChapter(9, 3, 30), nil)
		grants.On("Exists", ctx, int64(42), int64(9)).Return(false, nil)
		ledgerSvc.On("ApplyDebit", ctx, nil, mock.MatchedBy(func(req ledger.DebitRequest) bool {
			return req.UserID == 42 && req.Amount == 30 && req.ReferenceID == "chapter_9"
		})).Return(&coin.Entry{UserID: 42, Amount: -30, BalanceAfter: 70, ReferenceID: "chapter_9"}, nil)
		grants.On("Create", ctx, mock.MatchedBy(func(g *domain.Grant) bool {
			return g.UserID == 42 && g.ChapterID == 9 && g.CoinsSpent == 30
		})).Return(nil)
		outbox.On("Create", ctx, mock.MatchedBy(func(m *activity.OutboxMessage) bool {
			event, err := m.GetEvent()
			return err == nil && event.Kind == activity.KindChapterUnlock && event.ChapterID == 9
		})).Return(nil)

		result, err := svc.UnlockChapter(ctx, 42, 9, "corr-1")
		require.NoError(t, err)
		assert.False(t, result.AlreadyUnlocked)
		assert.Equal(t, int64(70), result.CoinsRemaining)
		require.NotNil(t, result.Grant)
		assert.Equal(t, int64(30), result.Grant.CoinsSpent)

		ledgerSvc.AssertExpectations(t)
		grants.AssertExpectations(t)
		outbox.AssertExpectations(t)
	})

	t.Run("free chapter unlocks without spending", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		free := paidChapter(5, 3, 0)
		free.Locked = false
		catalogRepo.On("GetChapterByID", ctx, int64(5)).Return(free, nil)

		result, err := svc.UnlockChapter(ctx, 42, 5, "")
		require.NoError(t, err)
		assert.True(t, result.AlreadyUnlocked)
		ledgerSvc.AssertNotCalled(t, "ApplyDebit", mock.Anything, mock.Anything, mock.Anything)
		grants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("existing grant short-circuits", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		catalogRepo.On("GetChapterByID", ctx, int64(9)).Return(paidChapter(9, 3, 30), nil)
		grants.On("Exists", ctx, int64(42), int64(9)).Return(true, nil)

		result, err := svc.UnlockChapter(ctx, 42, 9, "")
		require.NoError(t, err)
		assert.True(t, result.AlreadyUnlocked)
		ledgerSvc.AssertNotCalled(t, "ApplyDebit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing a concurrent race reports already unlocked", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		catalogRepo.On("GetChapterByID", ctx, int64(9)).Return(paidChapter(9, 3, 30), nil)
		grants.On("Exists", ctx, int64(42), int64(9)).Return(false, nil)
		ledgerSvc.On("ApplyDebit", ctx, nil, mock.Anything).
			Return(&coin.Entry{UserID: 42, Amount: -30, BalanceAfter: 70}, nil)
		grants.On("Create", ctx, mock.Anything).
			Return(domain.ErrDuplicateGrant{UserID: 42, ChapterID: 9})

		result, err := svc.UnlockChapter(ctx, 42, 9, "")
		require.NoError(t, err)
		assert.True(t, result.AlreadyUnlocked)
		assert.Nil(t, result.Grant)
	})

	t.Run("insufficient coins propagates", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		catalogRepo.On("GetChapterByID", ctx, int64(9)).Return(paidChapter(9, 3, 30), nil)
		grants.On("Exists", ctx, int64(42), int64(9)).Return(false, nil)
		ledgerSvc.On("ApplyDebit", ctx, nil, mock.Anything).Return(nil, coin.ErrInsufficientCoins)

		_, err := svc.UnlockChapter(ctx, 42, 9, "")
		assert.ErrorIs(t, err, coin.ErrInsufficientCoins)
		grants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown chapter propagates not found", func(t *testing.T) {
		ledgerSvc := new(MockLedgerService)
		grants := new(MockGrantRepository)
		catalogRepo := new(MockCatalogRepository)
		outbox := new(MockOutboxRepository)
		svc := newTestService(ledgerSvc, grants, catalogRepo, outbox)

		catalogRepo.On("GetChapterByID", ctx, int64(999)).Return(nil, catalog.ErrChapterNotFound{ChapterID: 999})

		_, err := svc.UnlockChapter(ctx, 42, 999, "")
		assert.ErrorIs(t, err, catalog.ErrChapterNotFound{})
	})
}

func TestUnlockService_IsChapterUnlocked(t *testing.T) {
	ctx := context.Background()

	t.Run("granted chapter reports unlocked", func(t *testing.T) {
		catalogRepo := new(MockCatalogRepository)
		grants := new(MockGrantRepository)
		svc := newTestService(new(MockLedgerService), grants, catalogRepo, new(MockOutboxRepository))

		grants.On("Exists", ctx, int64(42), int64(9)).Return(true, nil)

		unlocked, err := svc.IsChapterUnlocked(ctx, 42, 9)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("no grant reports locked regardless of the chapter's lock flag", func(t *testing.T) {
		catalogRepo := new(MockCatalogRepository)
		grants := new(MockGrantRepository)
		svc := newTestService(new(MockLedgerService), grants, catalogRepo, new(MockOutboxRepository))

		grants.On("Exists", ctx, int64(42), int64(5)).Return(false, nil)

		unlocked, err := svc.IsChapterUnlocked(ctx, 42, 5)
		require.NoError(t, err)
		assert.False(t, unlocked)
		catalogRepo.AssertNotCalled(t, "GetChapterByID", mock.Anything, mock.Anything)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		grants := new(MockGrantRepository)
		svc := newTestService(new(MockLedgerService), grants, new(MockCatalogRepository), new(MockOutboxRepository))

		existsErr := errors.New("db down")
		grants.On("Exists", ctx, int64(42), int64(9)).Return(false, existsErr)

		_, err := svc.IsChapterUnlocked(ctx, 42, 9)
		assert.ErrorIs(t, err, existsErr)
	})
}

func TestUnlockService_ListUnlocked(t *testing.T) {
	ctx := context.Background()
	grants := new(MockGrantRepository)
	svc := newTestService(new(MockLedgerService), grants, new(MockCatalogRepository), new(MockOutboxRepository))

	expected := []*domain.Grant{{ID: 1, UserID: 42, ChapterID: 9}}
	grants.On("ListByUserID", ctx, int64(42)).Return(expected, nil)

	got, err := svc.ListUnlocked(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	listErr := errors.New("db down")
	grants.On("ListByUserAndStory", ctx, int64(42), int64(3)).Return(nil, listErr)
	_, err = svc.ListUnlockedByStory(ctx, 42, 3)
	assert.ErrorIs(t, err, listErr)
}
