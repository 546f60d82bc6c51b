package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novelreads-coin-ledger/internal/api_gateway/handler"
	"github.com/novelreads-coin-ledger/internal/api_gateway/middleware"
	"github.com/novelreads-coin-ledger/internal/config"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	cfg *config.Config,
	r *gin.Engine,
	coinHandler *handler.CoinHandler,
	unlockHandler *handler.UnlockHandler,
	paymentHandler *handler.PaymentHandler,
	adminHandler *handler.AdminHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	requireAuth := middleware.RequireAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Coin balance and transaction log
		coins := v1.Group("/coins")
		{
			coins.GET("", requireAuth, coinHandler.GetBalance)
			coins.GET("/transactions", requireAuth, coinHandler.GetHistory)
			coins.GET("/packages", paymentHandler.ListPackages)
		}

		// Chapter unlock operations
		chapters := v1.Group("/chapters", requireAuth)
		{
			chapters.POST("/:id/unlock", unlockHandler.Unlock)
			chapters.GET("/:id/unlock-status", unlockHandler.UnlockStatus)
			chapters.GET("/unlocked", unlockHandler.ListUnlocked)
		}

		// Coin purchases; the gateway callback is unauthenticated
		payments := v1.Group("/payments")
		{
			payments.POST("", requireAuth, paymentHandler.Create)
			payments.GET("/history", requireAuth, paymentHandler.History)
			payments.GET("/callback", paymentHandler.Callback)
			payments.POST("/callback", paymentHandler.Callback)
		}

		// Admin activity feed and statistics
		admin := v1.Group("/admin", requireAuth, middleware.RequireAdmin())
		{
			admin.GET("/activity", adminHandler.ActivityFeed)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
