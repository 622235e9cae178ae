package payment

import (
	"context"
	"time"
)

// Verifier confirms a reference with the payment provider
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*NormalizedTransaction, error)
}

// ListFilter narrows payment listings
type ListFilter struct {
	Color  string
	Family string
	From   *time.Time
	To     *time.Time
}

// Repository is the read side of the payments collection. Writes only happen
// inside the reconciliation commit.
type Repository interface {
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Payment, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// ErrPaymentNotFound indicates no committed payment exists for a reference
type ErrPaymentNotFound struct {
	Reference string
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.Reference
}

// Is matches any ErrPaymentNotFound when the target has no reference
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
