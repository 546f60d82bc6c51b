package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	domain "github.com/novelreads-coin-ledger/internal/domain/unlock"
	"github.com/novelreads-coin-ledger/internal/ledger"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

type unlockService struct {
	db      persistence.TxRunner
	ledger  ledger.Service
	grants  domain.Repository
	catalog catalog.Repository
	outbox  activity.OutboxRepository
	logger  *slog.Logger
}

// NewService creates the chapter unlock service
func NewService(
	logger *slog.Logger,
	db persistence.TxRunner,
	ledgerService ledger.Service,
	grants domain.Repository,
	catalogRepo catalog.Repository,
	outbox activity.OutboxRepository,
) Service {
	return &unlockService{
		db:      db,
		ledger:  ledgerService,
		grants:  grants,
		catalog: catalogRepo,
		outbox:  outbox,
		logger:  logger,
	}
}

// UnlockChapter unlocks a paywalled chapter for the user. Free chapters
// unlock without spending coins or writing a grant. Paid unlocks debit the
// chapter price and insert the grant in one transaction; if another request
// inserted the grant first, the whole transaction rolls back and the call
// reports the chapter as already unlocked.
func (s *unlockService) UnlockChapter(ctx context.Context, userID, chapterID int64, correlationID string) (*Result, error) {
	chapter, err := s.catalog.GetChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	if !chapter.Paywalled() {
		return &Result{Chapter: chapter, AlreadyUnlocked: true}, nil
	}

	unlocked, err := s.grants.Exists(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}
	if unlocked {
		return &Result{Chapter: chapter, AlreadyUnlocked: true}, nil
	}

	var result *Result
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		entry, txErr := s.ledger.ApplyDebit(ctx, tx, ledger.DebitRequest{
			UserID:        userID,
			Amount:        chapter.Price,
			Description:   fmt.Sprintf("Unlocked chapter %d of story %d", chapter.Number, chapter.StoryID),
			ReferenceID:   "chapter_" + strconv.FormatInt(chapterID, 10),
			CorrelationID: correlationID,
		})
		if txErr != nil {
			return txErr
		}

		grant := domain.NewGrant(userID, chapterID, chapter.Price)
		if txErr := s.grants.WithTx(tx).Create(ctx, grant); txErr != nil {
			return txErr
		}

		event := activity.NewEvent(activity.KindChapterUnlock, userID, entry.Amount, entry.BalanceAfter)
		event.ChapterID = chapterID
		event.ReferenceID = entry.ReferenceID
		event.CorrelationID = correlationID
		message, txErr := activity.NewOutboxMessage(event)
		if txErr != nil {
			return fmt.Errorf("failed to build outbox message: %w", txErr)
		}
		if txErr := s.outbox.WithTx(tx).Create(ctx, message); txErr != nil {
			return txErr
		}

		result = &Result{
			Grant:          grant,
			Chapter:        chapter,
			CoinsRemaining: entry.BalanceAfter,
		}
		return nil
	})

	if err != nil {
		// A concurrent request won the race; the debit rolled back with the
		// grant, so the user holds the chapter and paid for it exactly once.
		if errors.Is(err, domain.ErrDuplicateGrant{}) {
			s.logger.Info("Chapter already unlocked by concurrent request",
				"user_id", userID,
				"chapter_id", chapterID,
			)
			return &Result{Chapter: chapter, AlreadyUnlocked: true}, nil
		}
		return nil, err
	}

	s.logger.Info("Unlocked chapter",
		"user_id", userID,
		"chapter_id", chapterID,
		"coins_spent", chapter.Price,
		"coins_remaining", result.CoinsRemaining,
	)

	return result, nil
}

// IsChapterUnlocked reports whether the user holds a grant for the chapter.
// Grants are permanent, so the answer does not depend on the chapter's
// current lock flag or on the chapter still existing.
func (s *unlockService) IsChapterUnlocked(ctx context.Context, userID, chapterID int64) (bool, error) {
	return s.grants.Exists(ctx, userID, chapterID)
}

// ListUnlocked returns all grants held by the user, newest first
func (s *unlockService) ListUnlocked(ctx context.Context, userID int64) ([]*domain.Grant, error) {
	return s.grants.ListByUserID(ctx, userID)
}

// ListUnlockedByStory returns the user's grants for one story in chapter order
func (s *unlockService) ListUnlockedByStory(ctx context.Context, userID, storyID int64) ([]*domain.Grant, error) {
	return s.grants.ListByUserAndStory(ctx, userID, storyID)
}
