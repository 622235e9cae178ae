package settings

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// PriceProvider resolves the price per vote in effect right now
type PriceProvider struct {
	repo     Repository
	fallback decimal.Decimal
	logger   *slog.Logger
}

// NewPriceProvider creates a provider falling back to the given price
func NewPriceProvider(logger *slog.Logger, repo Repository, fallback int64) *PriceProvider {
	return &PriceProvider{
		repo:     repo,
		fallback: decimal.NewFromInt(fallback),
		logger:   logger,
	}
}

// PricePerVote returns the configured price, or the fallback when the settings
// are missing, unreadable or non-positive. It never fails.
func (p *PriceProvider) PricePerVote(ctx context.Context) decimal.Decimal {
	app, err := p.repo.GetApp(ctx)
	if err != nil {
		p.logger.Warn("Using fallback price per vote", "fallback", p.fallback.String(), "error", err)
		return p.fallback
	}
	if app == nil || app.Voting.PricePerVote <= 0 {
		p.logger.Warn("Using fallback price per vote", "fallback", p.fallback.String(), "error", ErrPriceNotConfigured)
		return p.fallback
	}
	return decimal.NewFromFloat(app.Voting.PricePerVote)
}
