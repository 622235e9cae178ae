// Package payment models confirmed provider charges and the normalized view of a
// provider transaction they are built from.
package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

// GuestFamily is recorded when no family can be resolved for the payer
const GuestFamily = "Guest"

// Status is the provider-side state of a transaction
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Customer holds optional payer details. Absent values are stored as explicit nulls.
type Customer struct {
	Email    *string `json:"email" bson:"email"`
	Name     *string `json:"name" bson:"name"`
	Username *string `json:"username" bson:"username"`
}

// Metadata is the merchant-supplied metadata attached to a transaction
type Metadata struct {
	Color    *string        `json:"color" bson:"color"`
	Family   *string        `json:"family" bson:"family"`
	Username *string        `json:"username" bson:"username"`
	Email    *string        `json:"email" bson:"email"`
	Extra    map[string]any `json:"extra" bson:"extra"`
}

// Authorization holds card/bank details reported by the provider
type Authorization struct {
	CardType *string `json:"card_type" bson:"card_type"`
	Bank     *string `json:"bank" bson:"bank"`
	Last4    *string `json:"last4" bson:"last4"`
	Brand    *string `json:"brand" bson:"brand"`
	Channel  *string `json:"channel" bson:"channel"`
}

// Payment is one confirmed charge. It is written once by the reconciliation
// commit and never updated.
type Payment struct {
	Reference     string         `json:"reference" bson:"reference"`
	Amount        float64        `json:"amount" bson:"amount"` // Major currency units
	AmountMinor   int64          `json:"amount_minor" bson:"amount_minor"`
	Status        Status         `json:"status" bson:"status"`
	Currency      string         `json:"currency" bson:"currency"`
	Channel       *string        `json:"channel" bson:"channel"`
	Customer      Customer       `json:"customer" bson:"customer"`
	Metadata      Metadata       `json:"metadata" bson:"metadata"`
	Family        string         `json:"family" bson:"family"`
	Source        shared.Source  `json:"source" bson:"source"`
	Authorization *Authorization `json:"authorization" bson:"authorization"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	PaidAt        *time.Time     `json:"paid_at" bson:"paid_at"`
	IngestedAt    time.Time      `json:"ingested_at" bson:"ingested_at"`
}

// AmountDecimal returns the paid amount in major units
func (p *Payment) AmountDecimal() decimal.Decimal {
	return MinorToMajor(p.AmountMinor)
}

// Color returns the tagged color, or "" when the payment carries none
func (p *Payment) Color() string {
	return deref(p.Metadata.Color)
}

// VoterKey identifies the payer for unique-voter counting
func (p *Payment) VoterKey() string {
	if u := deref(p.Customer.Username); u != "" {
		return u
	}
	return deref(p.Customer.Email)
}

// MinorToMajor converts provider minor units (kobo) to major units
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// StringPtr returns nil for empty strings so optional fields are stored as null
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
