package service

import (
	"errors"
	"fmt"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

var (
	// ErrInProgress means another attempt holds the reference; retry later
	ErrInProgress = errors.New("reconciliation already in progress for this reference")

	// ErrProviderVerification wraps provider transport and API failures
	ErrProviderVerification = errors.New("payment provider verification failed")

	// ErrTransactionNotSuccessful means the provider reports the charge did not succeed
	ErrTransactionNotSuccessful = errors.New("transaction was not successful")
)

// NotSuccessfulError carries the provider's view of an unsuccessful transaction
type NotSuccessfulError struct {
	Reference       string
	Status          payment.Status
	GatewayResponse string
}

func (e *NotSuccessfulError) Error() string {
	return fmt.Sprintf("transaction %s status is %s", e.Reference, e.Status)
}

func (e *NotSuccessfulError) Unwrap() error {
	return ErrTransactionNotSuccessful
}
