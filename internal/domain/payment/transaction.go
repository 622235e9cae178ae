package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

var (
	ErrInvalidAmount = errors.New("transaction amount must not be negative")
	ErrNoReference   = errors.New("transaction has no reference")
)

// NormalizedTransaction is the provider-independent result of verifying a reference
type NormalizedTransaction struct {
	Reference       string
	Status          Status
	AmountMinor     int64
	Currency        string
	Channel         *string
	Customer        Customer
	Metadata        Metadata
	Authorization   *Authorization
	CreatedAt       time.Time
	PaidAt          *time.Time
	GatewayResponse string
}

// Validate rejects transactions that must never reach the vote policy
func (t *NormalizedTransaction) Validate() error {
	if strings.TrimSpace(t.Reference) == "" {
		return ErrNoReference
	}
	if t.AmountMinor < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, t.AmountMinor)
	}
	return nil
}

// Succeeded reports whether the provider confirmed the charge
func (t *NormalizedTransaction) Succeeded() bool {
	return t.Status == StatusSuccess
}

// ApplyHint fills metadata fields the provider did not return from a client-side hint,
// typically the pending-verification marker registered before checkout.
func (t *NormalizedTransaction) ApplyHint(hint *Metadata) {
	if hint == nil {
		return
	}
	if t.Metadata.Color == nil {
		t.Metadata.Color = hint.Color
	}
	if t.Metadata.Family == nil {
		t.Metadata.Family = hint.Family
	}
	if t.Metadata.Username == nil {
		t.Metadata.Username = hint.Username
	}
	if t.Metadata.Email == nil {
		t.Metadata.Email = hint.Email
	}
}

// ToPayment builds the Payment committed for this transaction
func (t *NormalizedTransaction) ToPayment(source shared.Source, family string, ingestedAt time.Time) *Payment {
	amount, _ := MinorToMajor(t.AmountMinor).Float64()

	customer := t.Customer
	if customer.Username == nil {
		customer.Username = t.Metadata.Username
	}
	if customer.Email == nil {
		customer.Email = t.Metadata.Email
	}

	metadata := t.Metadata
	if metadata.Extra == nil {
		metadata.Extra = map[string]any{}
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = ingestedAt
	}

	return &Payment{
		Reference:     t.Reference,
		Amount:        amount,
		AmountMinor:   t.AmountMinor,
		Status:        t.Status,
		Currency:      t.Currency,
		Channel:       t.Channel,
		Customer:      customer,
		Metadata:      metadata,
		Family:        family,
		Source:        source,
		Authorization: t.Authorization,
		CreatedAt:     createdAt,
		PaidAt:        t.PaidAt,
		IngestedAt:    ingestedAt,
	}
}
