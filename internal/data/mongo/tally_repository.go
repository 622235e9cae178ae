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

	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// TallyRepository implements the tally.Repository interface for MongoDB
type TallyRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewTallyRepository(logger *slog.Logger, db *mongo.Database) *TallyRepository {
	return &TallyRepository{db: db, logger: logger}
}

// Get returns the aggregate, or an empty one if no vote was ever committed
func (r *TallyRepository) Get(ctx context.Context) (*tally.Aggregate, error) {
	var agg tally.Aggregate
	err := r.db.Collection(StatsCollectionName).FindOne(ctx, bson.M{"_id": tally.AggregateID}).Decode(&agg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &tally.Aggregate{ID: tally.AggregateID, Colors: map[string]tally.ColorTally{}}, nil
		}
		r.logger.Error("Failed to get color aggregate", "error", err)
		return nil, fmt.Errorf("failed to get color aggregate: %w", err)
	}
	if agg.Colors == nil {
		agg.Colors = map[string]tally.ColorTally{}
	}
	return &agg, nil
}

// Replace overwrites the aggregate, bumping its version. Used to repair the
// materialized view from committed votes.
func (r *TallyRepository) Replace(ctx context.Context, agg *tally.Aggregate) error {
	update := bson.M{
		"$set": bson.M{
			"colors":     agg.Colors,
			"updated_at": agg.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	_, err := r.db.Collection(StatsCollectionName).UpdateOne(ctx,
		bson.M{"_id": tally.AggregateID}, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to replace color aggregate", "error", err)
		return fmt.Errorf("failed to replace color aggregate: %w", err)
	}
	return nil
}

// contributionUpdate builds the atomic update adding one vote to its color:
// running totals are incremented and the log keeps the newest logLimit entries.
func contributionUpdate(v *vote.Vote, logLimit int, now time.Time) bson.M {
	prefix := "colors." + v.Color
	return bson.M{
		"$inc": bson.M{
			prefix + ".votes":  v.CalculatedVotes,
			prefix + ".amount": v.Amount,
			"version":          int64(1),
		},
		"$push": bson.M{
			prefix + ".transactions": bson.M{
				"$each":  bson.A{tally.ContributionFromVote(v)},
				"$slice": -logLimit,
			},
		},
		"$set": bson.M{"updated_at": now},
	}
}
