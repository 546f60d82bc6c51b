package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novelreads-coin-ledger/internal/api_gateway/middleware"
	"github.com/novelreads-coin-ledger/internal/domain/catalog"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	"github.com/novelreads-coin-ledger/internal/ledger"
)

// CoinHandler handles HTTP requests for coin balance and transaction history
type CoinHandler struct {
	ledgerService ledger.Service
	catalogRepo   catalog.Repository
	logger        *slog.Logger
}

// NewCoinHandler creates a new coin handler
func NewCoinHandler(logger *slog.Logger, ledgerService ledger.Service, catalogRepo catalog.Repository) *CoinHandler {
	return &CoinHandler{
		ledgerService: ledgerService,
		catalogRepo:   catalogRepo,
		logger:        logger,
	}
}

// GetBalance returns the authenticated user's coin balance. Users without a
// balance row yet see zero coins.
func (h *CoinHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	balance, err := h.ledgerService.UserCoins(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get balance", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	response := BalanceResponse{
		UserID: balance.UserID,
		Coins:  balance.Coins,
	}

	user, err := h.catalogRepo.GetUserByID(c.Request.Context(), userID)
	switch {
	case err == nil:
		response.Username = user.Username
		response.Email = user.Email
	case !errors.Is(err, catalog.ErrUserNotFound{}):
		h.logger.Error("Failed to get user profile", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, response)
}

// GetHistory returns the authenticated user's transaction log, newest first
func (h *CoinHandler) GetHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	offset := (params.Page - 1) * params.PerPage
	entries, total, err := h.ledgerService.History(c.Request.Context(), userID, params.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to get transaction history", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// mapEntryToResponse maps a ledger entry to a transaction response DTO
func mapEntryToResponse(entry *coin.Entry) EntryResponse {
	return EntryResponse{
		ID:            entry.ID,
		Type:          string(entry.Type),
		Amount:        entry.Amount,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Description:   entry.Description,
		ReferenceID:   entry.ReferenceID,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
}
