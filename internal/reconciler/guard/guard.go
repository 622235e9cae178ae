// Package guard keeps at most one reconciliation per reference in flight.
package guard

import (
	"context"
	"sync"
)

// Release gives a held reference back. Calling it more than once is harmless.
type Release func()

// Guard grants exclusive, non-blocking ownership of a reference
type Guard interface {
	// TryAcquire returns ok=false without waiting when the reference is held elsewhere
	TryAcquire(ctx context.Context, reference string) (release Release, ok bool, err error)
}

// LocalGuard is an in-process set of in-flight references
type LocalGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{inFlight: make(map[string]struct{})}
}

func (g *LocalGuard) TryAcquire(_ context.Context, reference string) (Release, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.inFlight[reference]; held {
		return nil, false, nil
	}
	g.inFlight[reference] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, reference)
			g.mu.Unlock()
		})
	}, true, nil
}

// InFlight reports whether the reference is currently held
func (g *LocalGuard) InFlight(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.inFlight[reference]
	return held
}
