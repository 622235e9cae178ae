package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

// PaymentRepository implements the payment.Repository interface for MongoDB
type PaymentRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewPaymentRepository creates a new MongoDB payment repository
func NewPaymentRepository(logger *slog.Logger, db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// GetByReference retrieves the committed payment for a reference.
// Returns ErrPaymentNotFound if none exists.
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return findPaymentByReference(ctx, r.db, reference, r.logger)
}

// List retrieves payments matching the filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter payment.ListFilter, limit, offset int) ([]*payment.Payment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "ingested_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(PaymentsCollectionName).Find(ctx, paymentFilter(filter), opts)
	if err != nil {
		r.logger.Error("Failed to list payments", "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := make([]*payment.Payment, 0)
	if err := cursor.All(ctx, &payments); err != nil {
		r.logger.Error("Failed to decode payments", "error", err)
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	return payments, nil
}

// Count counts payments matching the filter
func (r *PaymentRepository) Count(ctx context.Context, filter payment.ListFilter) (int64, error) {
	count, err := r.db.Collection(PaymentsCollectionName).CountDocuments(ctx, paymentFilter(filter))
	if err != nil {
		r.logger.Error("Failed to count payments", "error", err)
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// findPaymentByReference is shared with the reconciliation store, which calls it
// with a session context for the in-transaction re-check.
func findPaymentByReference(ctx context.Context, db *mongo.Database, reference string, logger *slog.Logger) (*payment.Payment, error) {
	var p payment.Payment
	err := db.Collection(PaymentsCollectionName).FindOne(ctx, bson.M{"reference": reference}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, payment.ErrPaymentNotFound{Reference: reference}
		}
		logger.Error("Failed to get payment",
			"reference", reference,
			"error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func paymentFilter(f payment.ListFilter) bson.M {
	filter := bson.M{}
	// metadata.color is stored as the provider sent it
	if f.Color != "" {
		filter["metadata.color"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Color) + "$", Options: "i"}
	}
	if f.Family != "" {
		filter["family"] = f.Family
	}
	if r := timeRange(f.From, f.To); r != nil {
		filter["ingested_at"] = r
	}
	return filter
}
