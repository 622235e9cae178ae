// Package vote holds the vote record and the policy converting money into votes.
package vote

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

// DefaultPricePerVote applies when no usable price is configured
const DefaultPricePerVote int64 = 100

// Vote is the fellowship-vote side effect of a color-tagged payment.
// CalculatedVotes is a snapshot taken with the price in effect at ingestion.
type Vote struct {
	ID              string        `json:"id" bson:"_id"`
	Reference       string        `json:"reference" bson:"reference"`
	Color           string        `json:"color" bson:"color"`
	Family          string        `json:"family" bson:"family"`
	Username        *string       `json:"username" bson:"username"`
	Email           *string       `json:"email" bson:"email"`
	Amount          float64       `json:"amount" bson:"amount"`
	PricePerVote    float64       `json:"price_per_vote" bson:"price_per_vote"`
	CalculatedVotes int64         `json:"calculated_votes" bson:"calculated_votes"`
	Source          shared.Source `json:"source" bson:"source"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
}

// ComputeVotes returns floor(amount / price). Amounts below the price yield 0.
// A non-positive price falls back to DefaultPricePerVote.
func ComputeVotes(amount, price decimal.Decimal) int64 {
	if !price.IsPositive() {
		price = decimal.NewFromInt(DefaultPricePerVote)
	}
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(price).Floor().IntPart()
}

// NewFromPayment builds the vote for a committed payment
func NewFromPayment(p *payment.Payment, color string, price decimal.Decimal) *Vote {
	if !price.IsPositive() {
		price = decimal.NewFromInt(DefaultPricePerVote)
	}
	pricePerVote, _ := price.Float64()

	return &Vote{
		ID:              uuid.NewString(),
		Reference:       p.Reference,
		Color:           color,
		Family:          p.Family,
		Username:        p.Customer.Username,
		Email:           p.Customer.Email,
		Amount:          p.Amount,
		PricePerVote:    pricePerVote,
		CalculatedVotes: ComputeVotes(p.AmountDecimal(), price),
		Source:          p.Source,
		CreatedAt:       p.IngestedAt,
	}
}

// VoterKey identifies the voter for unique-voter counting
func (v *Vote) VoterKey() string {
	if v.Username != nil && *v.Username != "" {
		return *v.Username
	}
	if v.Email != nil {
		return *v.Email
	}
	return ""
}

// Filter narrows vote listings
type Filter struct {
	Color  string
	Family string
	From   *time.Time
	To     *time.Time
}

// Repository reads committed votes
type Repository interface {
	List(ctx context.Context, filter Filter) ([]*Vote, error)
	Recent(ctx context.Context, filter Filter, limit int) ([]*Vote, error)
}
