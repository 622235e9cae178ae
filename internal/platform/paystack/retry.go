package paystack

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

// RetryingVerifier retries a verifier on provider 5xx replies with a fixed delay.
// Any other failure is returned immediately.
type RetryingVerifier struct {
	next    payment.Verifier
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

// NewRetryingVerifier allows up to retries additional attempts after the first
func NewRetryingVerifier(logger *slog.Logger, next payment.Verifier, retries int, delay time.Duration) *RetryingVerifier {
	return &RetryingVerifier{next: next, retries: retries, delay: delay, logger: logger}
}

func (r *RetryingVerifier) VerifyTransaction(ctx context.Context, reference string) (*payment.NormalizedTransaction, error) {
	attempt := 0
	op := func() (*payment.NormalizedTransaction, error) {
		attempt++
		tx, err := r.next.VerifyTransaction(ctx, reference)
		if err == nil {
			return tx, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.ServerError() {
			r.logger.Warn("Provider server error, retrying",
				"reference", reference,
				"attempt", attempt,
				"status_code", apiErr.StatusCode)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.delay)),
		backoff.WithMaxTries(uint(r.retries+1)),
	)
}
