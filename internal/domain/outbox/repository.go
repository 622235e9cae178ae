package outbox

import (
	"context"

	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

// Repository manages outbox message persistence. Creation happens inside the
// reconciliation commit.
type Repository interface {
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id string, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id string) error
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID string
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + e.ID
}
