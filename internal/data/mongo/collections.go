// Package mongo provides the MongoDB implementations of the payment, vote, tally,
// settings, pending-marker and outbox repositories, and the transactional
// reconciliation store that writes them.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PaymentsCollectionName = "payments"
	VotesCollectionName    = "votes"
	StatsCollectionName    = "stats"
	SettingsCollectionName = "settings"
	PendingCollectionName  = "pending_verifications"
	OutboxCollectionName   = "vote_outbox"
)

// EnsureIndexes creates the indexes the reconciliation core relies on. The unique
// index on payments.reference backs the in-transaction idempotency check.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		PaymentsCollectionName: {
			{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_reference")},
			{Keys: bson.D{{Key: "ingested_at", Value: -1}}},
		},
		VotesCollectionName: {
			{Keys: bson.D{{Key: "reference", Value: 1}}},
			{Keys: bson.D{{Key: "color", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "family", Value: 1}}},
		},
		PendingCollectionName: {
			{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_reference")},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		OutboxCollectionName: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// timeRange builds a created_at style range filter; nil bounds are open
func timeRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = *to
	}
	return r
}
