package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
)

// AdminHandler serves the activity feed and aggregate statistics recorded by
// the activity processor
type AdminHandler struct {
	events activity.EventRepository
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(logger *slog.Logger, events activity.EventRepository) *AdminHandler {
	return &AdminHandler{
		events: events,
		logger: logger,
	}
}

type activityFeedParams struct {
	Limit  int `form:"limit,default=50" binding:"min=1,max=200"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

type statsParams struct {
	Days int `form:"days,default=30" binding:"min=1,max=365"`
}

// ActivityFeed returns recent activity events across all users, newest first
func (h *AdminHandler) ActivityFeed(c *gin.Context) {
	var params activityFeedParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid feed parameters: "+err.Error())
		return
	}

	events, err := h.events.ListRecent(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		h.logger.Error("Failed to list activity events", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ActivityEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, mapEventToResponse(event))
	}

	RespondOK(c, responses)
}

// Stats returns per-kind event counts and coin totals over the requested window
func (h *AdminHandler) Stats(c *gin.Context) {
	var params statsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid stats parameters: "+err.Error())
		return
	}

	since := time.Now().AddDate(0, 0, -params.Days)
	stats, err := h.events.StatsByKind(c.Request.Context(), since)
	if err != nil {
		h.logger.Error("Failed to aggregate activity stats", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]KindStatResponse, 0, len(stats))
	for _, stat := range stats {
		responses = append(responses, KindStatResponse{
			Kind:  string(stat.Kind),
			Count: stat.Count,
			Coins: stat.Coins,
		})
	}

	RespondOK(c, responses)
}

// mapEventToResponse maps an activity event to an admin feed DTO
func mapEventToResponse(event *activity.Event) ActivityEventResponse {
	return ActivityEventResponse{
		EventID:      event.EventID.String(),
		Kind:         string(event.Kind),
		UserID:       event.UserID,
		Amount:       event.Amount,
		BalanceAfter: event.BalanceAfter,
		ChapterID:    event.ChapterID,
		ReferenceID:  event.ReferenceID,
		OccurredAt:   event.OccurredAt.Format(time.RFC3339),
	}
}
