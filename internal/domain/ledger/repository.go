// Package ledger describes the idempotency ledger: the atomic commit that turns a
// confirmed transaction into exactly one payment, vote and tally contribution.
package ledger

import (
	"context"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// CommitRequest carries a confirmed payment into the atomic commit
type CommitRequest struct {
	Payment *payment.Payment
	Color   string // Normalized color, empty when the payment is untagged
}

// CommitResult is the state after the commit. When AlreadyExisted is true the
// stored payment is returned and nothing was written.
type CommitResult struct {
	Payment        *payment.Payment
	Vote           *vote.Vote
	AlreadyExisted bool
}

// Store commits reconciliations. Commit re-checks the reference inside the
// transaction and never writes a second payment for it.
type Store interface {
	Commit(ctx context.Context, req *CommitRequest) (*CommitResult, error)
}

// ErrDuplicateEntry indicates a racing commit already inserted the reference
type ErrDuplicateEntry struct {
	Reference string
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.Reference
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
