package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/data/mongo"
	"github.com/fellowship-vote-ledger/internal/data/postgres"
	"github.com/fellowship-vote-ledger/internal/domain/settings"
	"github.com/fellowship-vote-ledger/internal/observability/metrics"
	"github.com/fellowship-vote-ledger/internal/platform/paystack"
	"github.com/fellowship-vote-ledger/internal/platform/persistence"
	"github.com/fellowship-vote-ledger/internal/reconciler/guard"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// Runtime holds the connections and repositories every binary shares
type Runtime struct {
	Mongo    *persistence.MongoDB
	Postgres *persistence.PostgresDB
	Redis    *redis.Client
	Metrics  *metrics.Metrics

	Payments *mongo.PaymentRepository
	Votes    *mongo.VoteRepository
	Tallies  *mongo.TallyRepository
	Markers  *mongo.PendingRepository
	Outbox   *mongo.OutboxRepository
	Members  *postgres.MemberRepository
	Prices   *settings.PriceProvider
	Store    *mongo.ReconciliationStore

	Paystack *paystack.Client
	Guard    guard.Guard

	logger *slog.Logger
}

// NewRuntime connects to MongoDB, PostgreSQL (running migrations) and, when
// configured, Redis, then builds the repositories on top of them
func NewRuntime(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{logger: logger, Metrics: metrics.New()}

	mongoDB, err := persistence.NewMongoDB(ctx, logger, &cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	rt.Mongo = mongoDB

	if err := mongo.EnsureIndexes(ctx, mongoDB.Database()); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}

	postgresDB, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	rt.Postgres = postgresDB

	redisClient, err := persistence.NewRedisClient(ctx, logger, &cfg.Redis)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	rt.Redis = redisClient

	db := mongoDB.Database()
	rt.Payments = mongo.NewPaymentRepository(logger, db)
	rt.Votes = mongo.NewVoteRepository(logger, db)
	rt.Tallies = mongo.NewTallyRepository(logger, db)
	rt.Markers = mongo.NewPendingRepository(logger, db)
	rt.Outbox = mongo.NewOutboxRepository(logger, db)
	rt.Members = postgres.NewMemberRepository(logger, postgresDB)
	rt.Prices = settings.NewPriceProvider(logger, mongo.NewSettingsRepository(logger, db), cfg.Voting.DefaultPricePerVote)
	rt.Store = mongo.NewReconciliationStore(logger, mongoDB, rt.Prices, cfg.Voting.TallyLogLimit)

	rt.Paystack = paystack.NewClient(logger, &cfg.Paystack, paystack.WithLatencyObserver(rt.Metrics.ObserveProviderVerify))
	rt.Guard = NewGuard(logger, redisClient, &cfg.Guard)

	return rt, nil
}

// NewGuard returns the process-local guard, chained with a Redis lock when a
// client is available
func NewGuard(logger *slog.Logger, client *redis.Client, cfg *config.GuardConfig) guard.Guard {
	local := guard.NewLocalGuard()
	if client == nil {
		return local
	}
	distributed := guard.NewRedisGuard(logger.With("component", "redis_guard"), client, cfg.KeyPrefix, cfg.LockTTL)
	return guard.NewChainGuard(logger.With("component", "guard"), local, distributed)
}

// Pipeline assembles the reconciliation service on the runtime's stores
func (rt *Runtime) Pipeline(cfg *config.Config) *service.ReconciliationServiceImpl {
	return CreateReconciliationService(Collaborators{
		Payments: rt.Payments,
		Store:    rt.Store,
		Members:  rt.Members,
		Markers:  rt.Markers,
		Verifier: rt.Paystack,
		Guard:    rt.Guard,
		Observer: rt.Metrics,
	}, rt.logger, cfg)
}

// InTransaction runs fn in a MongoDB multi-document transaction
func (rt *Runtime) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := rt.Mongo.ExecuteTx(ctx, func(sessCtx mongodriver.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// TallyRebuilder repairs the color aggregate from committed votes
func (rt *Runtime) TallyRebuilder(cfg *config.Config) *TallyRebuilder {
	return NewTallyRebuilder(rt.logger.With("component", "tally_rebuilder"), rt.Votes, rt.Tallies, rt.InTransaction, cfg.Voting.TallyLogLimit)
}

// Close releases every connection that was opened. Safe on a partial runtime.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if rt.Postgres != nil {
		rt.Postgres.Close()
	}
	if rt.Mongo != nil {
		if err := rt.Mongo.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb: %w", err))
		}
	}
	return errors.Join(errs...)
}
