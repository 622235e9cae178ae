package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fellowship-vote-ledger/internal/domain/outbox"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

// OutboxRepository implements the outbox.Repository interface for MongoDB
type OutboxRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

// GetPending retrieves the oldest messages still waiting to be published
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(OutboxCollectionName).Find(ctx, bson.M{"status": shared.OutboxStatusPending}, opts)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*outbox.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		r.logger.Error("Failed to decode outbox messages", "error", err)
		return nil, fmt.Errorf("failed to decode outbox messages: %w", err)
	}
	return messages, nil
}

// UpdateStatus sets the publishing status of a message
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id string, status shared.OutboxStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "last_attempt_at": time.Now().UTC()}}
	return r.update(ctx, id, update, "status", string(status))
}

// IncrementAttempts records a failed publish attempt
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_attempt_at": time.Now().UTC()},
	}
	return r.update(ctx, id, update, "op", "increment_attempts")
}

func (r *OutboxRepository) update(ctx context.Context, id string, update bson.M, attrs ...any) error {
	result, err := r.db.Collection(OutboxCollectionName).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		r.logger.Error("Failed to update outbox message", append([]any{"id", id, "error", err}, attrs...)...)
		return fmt.Errorf("failed to update outbox message: %w", err)
	}
	if result.MatchedCount == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
