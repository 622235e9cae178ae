package components

import (
	"log/slog"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/ledger"
	"github.com/fellowship-vote-ledger/internal/domain/member"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/platform/paystack"
	"github.com/fellowship-vote-ledger/internal/reconciler/guard"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// Collaborators are the stores and adapters the pipeline is assembled from
type Collaborators struct {
	Payments payment.Repository
	Store    ledger.Store
	Members  member.Repository
	Markers  pending.Repository
	Verifier payment.Verifier
	Guard    guard.Guard
	Observer service.Observer
}

// CreateReconciliationService wires the pipeline. Verification polls get the
// 5xx retry wrapper around the provider.
func CreateReconciliationService(c Collaborators, logger *slog.Logger, cfg *config.Config) *service.ReconciliationServiceImpl {
	deps := service.Dependencies{
		Payments: c.Payments,
		Store:    c.Store,
		Guard:    c.Guard,
		Verifier: c.Verifier,
		PollVerifier: paystack.NewRetryingVerifier(
			logger.With("component", "poll_verifier"),
			c.Verifier,
			cfg.Paystack.PollRetries,
			cfg.Paystack.PollRetryDelay,
		),
		Families: NewFamilyResolver(c.Members, cfg.Voting.MemberEmailDomain, logger.With("component", "family_resolver")),
		Observer: c.Observer,
	}
	if c.Markers != nil {
		deps.Hints = NewPendingHintLoader(c.Markers, logger.With("component", "hint_loader"))
	}
	return service.NewReconciliationService(deps, logger.With("component", "reconciliation"))
}

// CreateWorkerPoolService bounds concurrency for the background reconciler,
// falling back to the base service if the pool cannot be built.
func CreateWorkerPoolService(base service.ReconciliationService, logger *slog.Logger, cfg *config.Config) service.ReconciliationService {
	workerPoolService, err := service.NewWorkerPoolReconciliationService(
		base,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return base
	}

	logger.Info("Created worker pool reconciliation service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
