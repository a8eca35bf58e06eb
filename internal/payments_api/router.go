package payments_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidyhome-payments-ledger/internal/payments_api/handler"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	walletHandler *handler.WalletHandler,
	loyaltyHandler *handler.LoyaltyHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all scoped to the authenticated principal
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Principal())
	{
		// Payment operations
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.GetByID)
			payments.POST("/:id/refund", paymentHandler.Refund)
		}

		// Wallet operations
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", walletHandler.Show)
			wallet.POST("/topup", walletHandler.TopUp)
			wallet.GET("/transactions", walletHandler.Transactions)
			wallet.GET("/stats", walletHandler.Stats)
		}

		// Loyalty points operations
		loyalty := v1.Group("/loyalty")
		{
			loyalty.GET("/points", loyaltyHandler.Points)
			loyalty.POST("/points", loyaltyHandler.Add)
			loyalty.POST("/redeem", loyaltyHandler.Redeem)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
