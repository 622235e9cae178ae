// Package settings exposes the application settings the reconciliation core reads.
package settings

import (
	"context"
	"errors"
)

// AppSettingsID is the _id of the application settings document
const AppSettingsID = "app"

// ErrPriceNotConfigured indicates the settings document has no usable price
var ErrPriceNotConfigured = errors.New("price per vote is not configured")

// Voting is the voting section of the settings document
type Voting struct {
	PricePerVote float64 `json:"pricePerVote" bson:"pricePerVote"`
}

// App is the application settings document
type App struct {
	ID     string `json:"id" bson:"_id"`
	Voting Voting `json:"voting" bson:"voting"`
}

// Repository reads settings. Implementations read fresh on every call.
type Repository interface {
	GetApp(ctx context.Context) (*App, error)
}
