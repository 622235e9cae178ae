package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fellowship-vote-ledger/internal/domain/settings"
)

// SettingsRepository reads the application settings document
type SettingsRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewSettingsRepository(logger *slog.Logger, db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

// GetApp returns the settings document, or ErrPriceNotConfigured when it is missing.
// Passing a session context reads inside that transaction.
func (r *SettingsRepository) GetApp(ctx context.Context) (*settings.App, error) {
	var app settings.App
	err := r.db.Collection(SettingsCollectionName).FindOne(ctx, bson.M{"_id": settings.AppSettingsID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, settings.ErrPriceNotConfigured
		}
		r.logger.Error("Failed to read app settings", "error", err)
		return nil, fmt.Errorf("failed to read app settings: %w", err)
	}
	return &app, nil
}
