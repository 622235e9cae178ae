package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/handler"
	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/config"
)

// MetricsExporter instruments the router and serves the scrape endpoint
type MetricsExporter interface {
	GinMiddleware() gin.HandlerFunc
	Handler() http.Handler
}

// Services groups what the handlers depend on
type Services struct {
	Reconciler service.Reconciler
	Payments   service.PaymentService
	Statistics service.StatisticsService
	Metrics    MetricsExporter // nil disables /metrics
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	metrics := services.Metrics
	if !cfg.Metrics.Enabled {
		metrics = nil
	}

	setupRouter(
		log,
		httpRouter,
		metrics,
		metricsPath,
		handler.NewWebhookHandler(log, services.Reconciler, &cfg.Paystack),
		handler.NewPaymentHandler(log, services.Reconciler, services.Payments),
		handler.NewStatsHandler(log, services.Statistics),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests. In-flight reconciliations finish or release
// their guard through their deferred release.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
