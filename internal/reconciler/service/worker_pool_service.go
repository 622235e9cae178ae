package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// WorkerPoolReconciliationService bounds how many reconciliations run at once
type WorkerPoolReconciliationService struct {
	baseService ReconciliationService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolReconciliationService(
	baseService ReconciliationService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolReconciliationService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolReconciliationService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

type outcome struct {
	result *Result
	err    error
}

// Reconcile runs the request on a pool worker and waits for its result.
// The caller blocks while the pool is saturated.
func (s *WorkerPoolReconciliationService) Reconcile(ctx context.Context, request *Request) (*Result, error) {
	logger := s.logger.With("reference", request.Reference, "source", request.Source)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting reconciliation to worker pool")

	resultChan := make(chan outcome, 1)

	// Copy so the worker never races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		res, err := s.baseService.Reconcile(ctx, &requestCopy)
		resultChan <- outcome{result: res, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit reconciliation to worker pool", "error", err)
		return nil, err
	}

	select {
	case out := <-resultChan:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolReconciliationService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolReconciliationService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolReconciliationService) Capacity() int {
	return s.pool.Cap()
}
