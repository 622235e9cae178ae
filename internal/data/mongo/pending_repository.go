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

	"github.com/fellowship-vote-ledger/internal/domain/pending"
)

// PendingRepository implements the pending.Repository interface for MongoDB
type PendingRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewPendingRepository(logger *slog.Logger, db *mongo.Database) *PendingRepository {
	return &PendingRepository{db: db, logger: logger}
}

// Register stores a marker. It returns false without error when a marker for the
// reference already exists.
func (r *PendingRepository) Register(ctx context.Context, marker *pending.Marker) (bool, error) {
	_, err := r.db.Collection(PendingCollectionName).InsertOne(ctx, marker)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		r.logger.Error("Failed to register pending marker", "reference", marker.Reference, "error", err)
		return false, fmt.Errorf("failed to register pending marker: %w", err)
	}
	return true, nil
}

// Get returns the marker for a reference
func (r *PendingRepository) Get(ctx context.Context, reference string) (*pending.Marker, error) {
	var m pending.Marker
	err := r.db.Collection(PendingCollectionName).FindOne(ctx, bson.M{"reference": reference}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pending.ErrMarkerNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get pending marker", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get pending marker: %w", err)
	}
	return &m, nil
}

// ListStale returns the oldest markers created before olderThan that have been
// attempted fewer than maxAttempts times
func (r *PendingRepository) ListStale(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*pending.Marker, error) {
	filter := bson.M{
		"created_at": bson.M{"$lte": olderThan},
		"attempts":   bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(PendingCollectionName).Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list stale pending markers", "error", err)
		return nil, fmt.Errorf("failed to list stale pending markers: %w", err)
	}
	defer cursor.Close(ctx)

	markers := make([]*pending.Marker, 0)
	if err := cursor.All(ctx, &markers); err != nil {
		return nil, fmt.Errorf("failed to decode pending markers: %w", err)
	}
	return markers, nil
}

// IncrementAttempts records a sweep attempt for a marker
func (r *PendingRepository) IncrementAttempts(ctx context.Context, reference string, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_attempt_at": at},
	}
	result, err := r.db.Collection(PendingCollectionName).UpdateOne(ctx, bson.M{"reference": reference}, update)
	if err != nil {
		r.logger.Error("Failed to increment pending marker attempts", "reference", reference, "error", err)
		return fmt.Errorf("failed to increment pending marker attempts: %w", err)
	}
	if result.MatchedCount == 0 {
		return pending.ErrMarkerNotFound{Reference: reference}
	}
	return nil
}
