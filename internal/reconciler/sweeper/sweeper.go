// Package sweeper re-enqueues verification for pending markers whose webhook never
// arrived.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/platform/messaging/producers"
)

// EnqueueObserver counts swept references
type EnqueueObserver interface {
	ObserveSweeperEnqueued(n int)
}

type Sweeper struct {
	markers     pending.Repository
	publisher   producers.MessagePublisher
	observer    EnqueueObserver
	logger      *slog.Logger
	cron        *cron.Cron
	schedule    string
	minAge      time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

func NewSweeper(
	cfg *config.SweeperConfig,
	markers pending.Repository,
	publisher producers.MessagePublisher,
	observer EnqueueObserver,
	logger *slog.Logger,
) *Sweeper {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &Sweeper{
		markers:     markers,
		publisher:   publisher,
		observer:    observer,
		logger:      logger.With("component", "sweeper"),
		cron:        cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		schedule:    cfg.Schedule,
		minAge:      cfg.MinAge,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the sweep and returns immediately. Runs stop when ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Sweeper scheduled", "schedule", s.schedule, "min_age", s.minAge.String(), "batch_size", s.batchSize)
	return nil
}

// Stop halts scheduling and returns a context done once the running sweep finishes
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// Sweep publishes a reconcile request for each stale marker and returns how many
// were enqueued. A marker that fails to publish keeps its attempt count and is
// retried on the next run.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.markers.ListStale(ctx, now.Add(-s.minAge), s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale pending markers: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	enqueued := 0
	for _, marker := range stale {
		logger := s.logger.With("reference", marker.Reference, "attempts", marker.Attempts)

		req := &shared.ReconcileRequest{
			Reference:  marker.Reference,
			Source:     shared.SourceSweeper,
			EnqueuedAt: now,
		}
		if err := s.publisher.Publish(ctx, marker.Reference, req); err != nil {
			logger.Warn("Failed to enqueue stale reference", "error", err)
			continue
		}

		if err := s.markers.IncrementAttempts(ctx, marker.Reference, now); err != nil {
			logger.Warn("Enqueued stale reference but failed to record attempt", "error", err)
		}
		if marker.Attempts+1 >= s.maxAttempts {
			logger.Warn("Final sweep for reference, provider has not confirmed it")
		}
		enqueued++
	}

	if s.observer != nil && enqueued > 0 {
		s.observer.ObserveSweeperEnqueued(enqueued)
	}
	s.logger.Info("Sweep finished", "stale", len(stale), "enqueued", enqueued)
	return enqueued, nil
}
