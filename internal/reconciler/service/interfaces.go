package service

import (
	"context"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

// ReconciliationService turns a transaction reference into exactly one committed payment.
type ReconciliationService interface {
	Reconcile(ctx context.Context, request *Request) (*Result, error)
}

// FamilyResolver picks the family credited with a transaction's vote
type FamilyResolver interface {
	Resolve(ctx context.Context, tx *payment.NormalizedTransaction) string
}

// HintLoader returns client-registered metadata for a reference, or nil
type HintLoader interface {
	LoadHint(ctx context.Context, reference string) *payment.Metadata
}

// Observer receives pipeline outcomes, typically Prometheus counters
type Observer interface {
	ObserveReconcile(source, outcome string)
	ObserveGuardContention(source string)
}

type noopObserver struct{}

func (noopObserver) ObserveReconcile(string, string) {}
func (noopObserver) ObserveGuardContention(string)   {}
