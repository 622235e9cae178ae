package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fellowship-vote-ledger/internal/api"
	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/logger"
	"github.com/fellowship-vote-ledger/internal/reconciler/components"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	rt, err := components.NewRuntime(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize runtime", "error", err)
		os.Exit(1)
	}

	// Webhooks and polls run the pipeline inline, one goroutine per request
	pipeline := rt.Pipeline(cfg)

	server := api.NewServer(log, cfg, api.Services{
		Reconciler: pipeline,
		Payments:   service.NewPaymentService(log, rt.Payments, rt.Markers),
		Statistics: service.NewStatisticsService(log, rt.Votes, rt.Tallies, rt.Prices, &cfg.Voting),
		Metrics:    rt.Metrics,
	})
	log.Info("REST server initialized", "stats_policy", cfg.Voting.StatsPolicy)

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain requests before cancelling the app context so in-flight commits finish
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}
	cancelAppCtx()

	if closeErr := rt.Close(shutdownCtx); closeErr != nil {
		log.Error("Error closing connections", "error", closeErr)
		err = closeErr
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil || serverErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
