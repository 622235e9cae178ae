package guard

import (
	"context"
	"log/slog"
)

// ChainGuard takes the local guard first, then the distributed one if configured.
// A distributed guard error degrades to local-only protection.
type ChainGuard struct {
	local       *LocalGuard
	distributed Guard
	logger      *slog.Logger
}

// NewChainGuard builds the guard used by the pipeline. distributed may be nil.
func NewChainGuard(logger *slog.Logger, local *LocalGuard, distributed Guard) *ChainGuard {
	return &ChainGuard{local: local, distributed: distributed, logger: logger}
}

func (g *ChainGuard) TryAcquire(ctx context.Context, reference string) (Release, bool, error) {
	releaseLocal, ok, err := g.local.TryAcquire(ctx, reference)
	if err != nil || !ok {
		return nil, false, err
	}
	if g.distributed == nil {
		return releaseLocal, true, nil
	}

	releaseRemote, ok, err := g.distributed.TryAcquire(ctx, reference)
	if err != nil {
		g.logger.Warn("Distributed guard unavailable, continuing with local guard",
			"reference", reference, "error", err)
		return releaseLocal, true, nil
	}
	if !ok {
		releaseLocal()
		return nil, false, nil
	}

	return func() {
		releaseRemote()
		releaseLocal()
	}, true, nil
}
