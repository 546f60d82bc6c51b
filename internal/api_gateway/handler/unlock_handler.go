package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novelreads-coin-ledger/internal/api_gateway/middleware"
	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	domain "github.com/novelreads-coin-ledger/internal/domain/unlock"
	"github.com/novelreads-coin-ledger/internal/unlock"
)

// UnlockHandler handles HTTP requests for chapter unlock operations
type UnlockHandler struct {
	unlockService unlock.Service
	logger        *slog.Logger
}

// NewUnlockHandler creates a new unlock handler
func NewUnlockHandler(logger *slog.Logger, unlockService unlock.Service) *UnlockHandler {
	return &UnlockHandler{
		unlockService: unlockService,
		logger:        logger,
	}
}

// Unlock spends coins to unlock a chapter. An already unlocked or free
// chapter succeeds without spending; insufficient coins is a declined
// outcome, not a server error.
func (h *UnlockHandler) Unlock(c *gin.Context) {
	userID := middleware.GetUserID(c)

	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid chapter ID")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	result, err := h.unlockService.UnlockChapter(c.Request.Context(), userID, chapterID, correlationID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrChapterNotFound{}):
			RespondNotFound(c, "Chapter not found")
		case errors.Is(err, coin.ErrInsufficientCoins):
			RespondPaymentRequired(c, "Not enough coins to unlock this chapter")
		default:
			h.logger.Error("Failed to unlock chapter", "user_id", userID, "chapter_id", chapterID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	response := UnlockResponse{
		Success:      true,
		ChapterID:    chapterID,
		ChapterTitle: result.Chapter.Title,
	}

	if result.AlreadyUnlocked {
		response.AlreadyUnlocked = true
		response.Message = "Chapter is already unlocked"
	} else {
		response.Message = "Chapter unlocked"
		response.CoinsSpent = result.Grant.CoinsSpent
		response.CoinsRemaining = result.CoinsRemaining
	}

	RespondOK(c, response)
}

// UnlockStatus reports whether the authenticated user holds a grant for a
// chapter. A chapter never unlocked, including one that does not exist,
// reports false.
func (h *UnlockHandler) UnlockStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)

	chapterID, err := parseIDParam(c, "id")
	if err != nil {
		RespondBadRequest(c, "Invalid chapter ID")
		return
	}

	unlocked, err := h.unlockService.IsChapterUnlocked(c.Request.Context(), userID, chapterID)
	if err != nil {
		h.logger.Error("Failed to check unlock status", "user_id", userID, "chapter_id", chapterID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, UnlockStatusResponse{ChapterID: chapterID, Unlocked: unlocked})
}

// ListUnlocked returns the user's unlocked chapters, optionally filtered by story
func (h *UnlockHandler) ListUnlocked(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var (
		grants []*domain.Grant
		err    error
	)

	if storyParam := c.Query("story_id"); storyParam != "" {
		storyID, parseErr := strconv.ParseInt(storyParam, 10, 64)
		if parseErr != nil || storyID <= 0 {
			RespondBadRequest(c, "Invalid story ID")
			return
		}
		grants, err = h.unlockService.ListUnlockedByStory(c.Request.Context(), userID, storyID)
	} else {
		grants, err = h.unlockService.ListUnlocked(c.Request.Context(), userID)
	}

	if err != nil {
		h.logger.Error("Failed to list unlocked chapters", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]GrantResponse, 0, len(grants))
	for _, grant := range grants {
		responses = append(responses, GrantResponse{
			ChapterID:  grant.ChapterID,
			CoinsSpent: grant.CoinsSpent,
			UnlockedAt: grant.UnlockedAt.Format(time.RFC3339),
		})
	}

	RespondOK(c, responses)
}

// parseIDParam extracts a positive integer path parameter
func parseIDParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
