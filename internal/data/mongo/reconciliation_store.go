package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fellowship-vote-ledger/internal/domain/ledger"
	"github.com/fellowship-vote-ledger/internal/domain/outbox"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/settings"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
	"github.com/fellowship-vote-ledger/internal/platform/persistence"
)

// ReconciliationStore implements ledger.Store on a MongoDB multi-document transaction
type ReconciliationStore struct {
	mongoDB  *persistence.MongoDB
	prices   *settings.PriceProvider
	logLimit int
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciliationStore creates the store. prices is consulted inside the transaction.
func NewReconciliationStore(logger *slog.Logger, mongoDB *persistence.MongoDB, prices *settings.PriceProvider, logLimit int) *ReconciliationStore {
	if logLimit <= 0 {
		logLimit = tally.DefaultLogLimit
	}
	return &ReconciliationStore{
		mongoDB:  mongoDB,
		prices:   prices,
		logLimit: logLimit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Commit writes the payment, its vote, the tally contribution and the outbox
// message, and deletes the pending marker, all or nothing. If the reference is
// already committed it returns the stored payment without writing.
func (s *ReconciliationStore) Commit(ctx context.Context, req *ledger.CommitRequest) (*ledger.CommitResult, error) {
	reference := req.Payment.Reference
	db := s.mongoDB.Database()

	result, err := s.mongoDB.ExecuteTx(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		// 1. Authoritative idempotency check
		existing, err := findPaymentByReference(sessCtx, db, reference, s.logger)
		if err == nil {
			return &ledger.CommitResult{Payment: existing, AlreadyExisted: true}, nil
		}
		if !errors.Is(err, payment.ErrPaymentNotFound{}) {
			return nil, err
		}

		// 2. Payment
		if _, err := db.Collection(PaymentsCollectionName).InsertOne(sessCtx, req.Payment); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ledger.ErrDuplicateEntry{Reference: reference}
			}
			return nil, fmt.Errorf("failed to insert payment: %w", err)
		}

		res := &ledger.CommitResult{Payment: req.Payment}

		// 3. Vote and tally, only for color-tagged payments
		if req.Color != "" {
			price := s.prices.PricePerVote(sessCtx)
			v := vote.NewFromPayment(req.Payment, req.Color, price)

			if _, err := db.Collection(VotesCollectionName).InsertOne(sessCtx, v); err != nil {
				return nil, fmt.Errorf("failed to insert vote: %w", err)
			}

			_, err := db.Collection(StatsCollectionName).UpdateOne(sessCtx,
				bson.M{"_id": tally.AggregateID},
				contributionUpdate(v, s.logLimit, s.now()),
				options.Update().SetUpsert(true))
			if err != nil {
				return nil, fmt.Errorf("failed to update color aggregate: %w", err)
			}

			msg, err := outbox.NewMessage(voteRecordedEvent(req.Payment, v))
			if err != nil {
				return nil, fmt.Errorf("failed to build outbox message: %w", err)
			}
			if _, err := db.Collection(OutboxCollectionName).InsertOne(sessCtx, msg); err != nil {
				return nil, fmt.Errorf("failed to insert outbox message: %w", err)
			}

			res.Vote = v
		}

		// 4. Pending marker
		if _, err := db.Collection(PendingCollectionName).DeleteOne(sessCtx, bson.M{"reference": reference}); err != nil {
			return nil, fmt.Errorf("failed to delete pending marker: %w", err)
		}

		return res, nil
	})
	if err != nil {
		// A racing commit won between our re-check and insert
		if errors.Is(err, ledger.ErrDuplicateEntry{}) || mongo.IsDuplicateKeyError(err) {
			existing, getErr := findPaymentByReference(ctx, db, reference, s.logger)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load concurrently committed payment: %w", getErr)
			}
			s.logger.Info("Reference committed concurrently", "reference", reference)
			return &ledger.CommitResult{Payment: existing, AlreadyExisted: true}, nil
		}
		s.logger.Error("Reconciliation commit failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("reconciliation commit failed: %w", err)
	}

	return result.(*ledger.CommitResult), nil
}

func voteRecordedEvent(p *payment.Payment, v *vote.Vote) *shared.VoteRecordedEvent {
	return &shared.VoteRecordedEvent{
		Reference:    v.Reference,
		VoteID:       v.ID,
		Color:        v.Color,
		Family:       v.Family,
		Votes:        v.CalculatedVotes,
		Amount:       v.Amount,
		PricePerVote: v.PricePerVote,
		Currency:     p.Currency,
		Source:       v.Source,
		RecordedAt:   v.CreatedAt,
	}
}
