package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/novelreads-coin-ledger/internal/api_gateway/middleware"
	domain "github.com/novelreads-coin-ledger/internal/domain/payment"
	"github.com/novelreads-coin-ledger/internal/payment"
)

// PaymentHandler handles HTTP requests for coin purchases and the gateway callback
type PaymentHandler struct {
	paymentService payment.Service
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create starts a coin purchase and returns the signed gateway redirect URL
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			RespondBadRequest(c, "Invalid amount")
			return
		}
		amount = parsed
	}
	if req.PackageID == nil && amount.IsZero() {
		RespondBadRequest(c, "Either package_id or amount is required")
		return
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), payment.CreateRequest{
		UserID:        userID,
		PackageID:     req.PackageID,
		Amount:        amount,
		ClientIP:      c.ClientIP(),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidAmount):
			RespondBadRequest(c, "Payment amount is below the minimum")
		case errors.Is(err, domain.ErrPackageNotFound{}):
			RespondNotFound(c, "Coin package not found")
		default:
			h.logger.Error("Failed to create payment", "user_id", userID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, CreatePaymentResponse{
		PaymentID:      result.Payment.ID,
		TransactionRef: result.Payment.TransactionRef,
		PayURL:         result.PayURL,
		Amount:         result.Payment.Amount.String(),
		Coins:          result.Payment.Coins,
		Status:         string(result.Payment.Status),
	})
}

// Callback reconciles a gateway notification. The gateway retries on non-2xx
// responses, so every business outcome answers with a structured payload;
// only a broken request or an internal failure produces an error status.
func (h *PaymentHandler) Callback(c *gin.Context) {
	params := callbackParams(c)
	correlationID := middleware.GetCorrelationID(c)

	result, err := h.paymentService.Reconcile(c.Request.Context(), params, correlationID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			h.logger.Warn("Rejected callback with invalid signature", "correlation_id", correlationID)
			RespondWithData(c, http.StatusBadRequest, CallbackResponse{Success: false, Message: "Invalid signature"})
		case errors.Is(err, domain.ErrPaymentNotFound{}):
			RespondOK(c, CallbackResponse{Success: false, Message: "Unknown transaction reference"})
		default:
			h.logger.Error("Failed to reconcile payment", "error", err)
			RespondInternalError(c)
		}
		return
	}

	response := CallbackResponse{Success: result.Payment.Status == domain.StatusCompleted}
	switch {
	case result.Replayed:
		response.Message = "Payment already reconciled"
	case response.Success:
		response.Message = "Payment completed"
	default:
		response.Message = "Payment " + string(result.Payment.Status)
	}
	if response.Success {
		response.Coins = result.Payment.Coins
	}

	RespondOK(c, response)
}

// History returns the authenticated user's payments, newest first
func (h *PaymentHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	offset := (params.Page - 1) * params.PerPage
	payments, total, err := h.paymentService.History(c.Request.Context(), userID, params.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to get payment history", "user_id", userID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, PaymentResponse{
			PaymentID:      p.ID,
			TransactionRef: p.TransactionRef,
			Amount:         p.Amount.String(),
			Coins:          p.Coins,
			Method:         string(p.Method),
			Status:         string(p.Status),
			GatewayCode:    p.GatewayCode,
			CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		})
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// ListPackages returns the active coin packages ordered by price
func (h *PaymentHandler) ListPackages(c *gin.Context) {
	packages, err := h.paymentService.ListPackages(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list coin packages", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]PackageResponse, 0, len(packages))
	for _, pkg := range packages {
		responses = append(responses, PackageResponse{
			ID:         pkg.ID,
			Name:       pkg.Name,
			Coins:      pkg.Coins,
			BonusCoins: pkg.BonusCoins,
			Price:      pkg.Price.String(),
		})
	}

	RespondOK(c, responses)
}

// callbackParams collects gateway parameters from the query string and, for
// POST notifications, the form body.
func callbackParams(c *gin.Context) url.Values {
	params := url.Values{}
	for key, values := range c.Request.URL.Query() {
		params[key] = values
	}

	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err == nil {
			for key, values := range c.Request.PostForm {
				params[key] = values
			}
		}
	}

	return params
}
