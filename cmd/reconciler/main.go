package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/logger"
	"github.com/fellowship-vote-ledger/internal/platform/messaging/consumers"
	"github.com/fellowship-vote-ledger/internal/platform/messaging/producers"
	"github.com/fellowship-vote-ledger/internal/reconciler/components"
	"github.com/fellowship-vote-ledger/internal/reconciler/consumer"
	"github.com/fellowship-vote-ledger/internal/reconciler/outbox_poller"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
	"github.com/fellowship-vote-ledger/internal/reconciler/sweeper"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("reconciler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Reconciler",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	rt, err := components.NewRuntime(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize runtime", "error", err)
		os.Exit(1)
	}

	reconcileProducer, err := producers.NewReconcileRequestProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize reconcile request producer", "error", err)
		os.Exit(1)
	}

	voteEventProducer, err := producers.NewVoteEventProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize vote event producer", "error", err)
		os.Exit(1)
	}

	// dlqProducer is nil when KAFKA_DLQ_TOPIC is empty; the handler is nil-safe
	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	reconciliationService := components.CreateWorkerPoolService(rt.Pipeline(cfg), log, cfg)

	var dlq producers.DeadLetterPublisher
	if dlqProducer != nil {
		dlq = dlqProducer
	}
	requestHandler := consumer.NewReconcileRequestHandler(log, reconciliationService, dlq)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.ReconcileTopic)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		rt.Outbox,
		outbox_poller.NewVoteEventPublisher(rt.Outbox, voteEventProducer, log),
		rt.Metrics,
		log,
	)

	sweep := sweeper.NewSweeper(&cfg.Sweeper, rt.Markers, reconcileProducer, rt.Metrics, log)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.ReconcileTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	if err := sweep.Start(appCtx); err != nil {
		log.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// Prometheus scrape endpoint for the background workers
	metricsServer := components.NewMetricsServer(cfg, rt.Metrics)
	if metricsServer != nil {
		go func() {
			log.Info("Starting metrics server", "addr", metricsServer.Addr)
			if err := components.ServeMetrics(metricsServer); err != nil {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case <-kafkaConsumer.Done():
		log.Warn("Kafka consumer stopped")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Wait for the running sweep before the producers close
	select {
	case <-sweep.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("Sweeper did not stop in time")
	}

	if wpService, ok := reconciliationService.(*service.WorkerPoolReconciliationService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if metricsServer != nil {
		if err = metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping metrics server", "error", err)
		}
	}
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}
	if err = reconcileProducer.Close(); err != nil {
		log.Error("Error closing reconcile request producer", "error", err)
	}
	if err = voteEventProducer.Close(); err != nil {
		log.Error("Error closing vote event producer", "error", err)
	}
	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = rt.Close(shutdownCtx); err != nil {
		log.Error("Error closing connections", "error", err)
	}

	if serviceErr != nil {
		log.Error("Reconciler shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Reconciler shutdown completed")
}
