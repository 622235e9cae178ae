package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// TxFunc runs fn inside a store transaction, passing the transactional context
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// TallyRebuilder recomputes the color aggregate from committed votes
type TallyRebuilder struct {
	votes    vote.Repository
	tallies  tally.Repository
	inTx     TxFunc
	logLimit int
	logger   *slog.Logger
	now      func() time.Time
}

func NewTallyRebuilder(logger *slog.Logger, votes vote.Repository, tallies tally.Repository, inTx TxFunc, logLimit int) *TallyRebuilder {
	return &TallyRebuilder{
		votes:    votes,
		tallies:  tallies,
		inTx:     inTx,
		logLimit: logLimit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Rebuild replaces the aggregate with one derived from every committed vote.
// Reading the votes and writing the aggregate share one transaction so a
// concurrent commit cannot be lost.
func (r *TallyRebuilder) Rebuild(ctx context.Context) (*tally.Aggregate, error) {
	var rebuilt *tally.Aggregate

	err := r.inTx(ctx, func(txCtx context.Context) error {
		votes, err := r.votes.List(txCtx, vote.Filter{})
		if err != nil {
			return err
		}

		rebuilt = tally.Rebuild(votes, r.logLimit, r.now())
		return r.tallies.Replace(txCtx, rebuilt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild color aggregate: %w", err)
	}

	r.logger.Info("Color aggregate rebuilt", "colors", len(rebuilt.Colors))
	return rebuilt, nil
}
