package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/handler"
	"github.com/fellowship-vote-ledger/internal/api/middleware"
)

const healthPath = "/health"

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	metrics MetricsExporter,
	metricsPath string,
	webhookHandler *handler.WebhookHandler,
	paymentHandler *handler.PaymentHandler,
	statsHandler *handler.StatsHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, healthPath, metricsPath))
	r.Use(middleware.Recovery(logger))
	if metrics != nil {
		r.Use(metrics.GinMiddleware())
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/webhooks/paystack", webhookHandler.Handle)

		payments := v1.Group("/payments")
		{
			payments.GET("", paymentHandler.List)
			payments.POST("/verify", paymentHandler.Verify)
			payments.POST("/pending", paymentHandler.RegisterPending)
			payments.GET("/:reference", paymentHandler.Get)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/votes", statsHandler.GetVoteStatistics)
			stats.GET("/colors", statsHandler.GetColorAggregate)
		}
	}

	r.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if metrics != nil {
		r.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}
}
