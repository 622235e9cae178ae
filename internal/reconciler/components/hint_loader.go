package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
)

type PendingHintLoader struct {
	markers pending.Repository
	logger  *slog.Logger
}

// NewPendingHintLoader reads hints from pending-verification markers
func NewPendingHintLoader(markers pending.Repository, logger *slog.Logger) service.HintLoader {
	return &PendingHintLoader{markers: markers, logger: logger}
}

func (l *PendingHintLoader) LoadHint(ctx context.Context, reference string) *payment.Metadata {
	marker, err := l.markers.Get(ctx, reference)
	if err != nil {
		if !errors.Is(err, pending.ErrMarkerNotFound{}) {
			l.logger.Warn("Failed to load pending marker", "reference", reference, "error", err)
		}
		return nil
	}
	return marker.Hint()
}
