package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// VoteRepository implements the vote.Repository interface for MongoDB
type VoteRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewVoteRepository(logger *slog.Logger, db *mongo.Database) *VoteRepository {
	return &VoteRepository{db: db, logger: logger}
}

// List returns every vote matching the filter in chronological order
func (r *VoteRepository) List(ctx context.Context, filter vote.Filter) ([]*vote.Vote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

// Recent returns the newest votes matching the filter
func (r *VoteRepository) Recent(ctx context.Context, filter vote.Filter, limit int) ([]*vote.Vote, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *VoteRepository) find(ctx context.Context, filter vote.Filter, opts *options.FindOptions) ([]*vote.Vote, error) {
	cursor, err := r.db.Collection(VotesCollectionName).Find(ctx, voteFilter(filter), opts)
	if err != nil {
		r.logger.Error("Failed to query votes", "color", filter.Color, "family", filter.Family, "error", err)
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer cursor.Close(ctx)

	votes := make([]*vote.Vote, 0)
	if err := cursor.All(ctx, &votes); err != nil {
		r.logger.Error("Failed to decode votes", "error", err)
		return nil, fmt.Errorf("failed to decode votes: %w", err)
	}
	return votes, nil
}

func voteFilter(f vote.Filter) bson.M {
	filter := bson.M{}
	if f.Color != "" {
		filter["color"] = f.Color
	}
	if f.Family != "" {
		filter["family"] = f.Family
	}
	if r := timeRange(f.From, f.To); r != nil {
		filter["created_at"] = r
	}
	return filter
}
