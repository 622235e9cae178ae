package vote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

func TestComputeVotes(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		price  string
		want   int64
	}{
		{"floors fractional votes", "250", "100", 2},
		{"below price yields zero", "99", "100", 0},
		{"exact multiple", "300", "100", 3},
		{"fractional amount", "199.99", "100", 1},
		{"fractional price", "10", "2.5", 4},
		{"zero amount", "0", "100", 0},
		{"negative amount", "-500", "100", 0},
		{"zero price uses default", "250", "0", 2},
		{"negative price uses default", "250", "-5", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeVotes(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.price))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFromPayment(t *testing.T) {
	ingested := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &payment.Payment{
		Reference:   "ref_1",
		Amount:      250,
		AmountMinor: 25000,
		Family:      "Grace",
		Source:      shared.SourceVerificationPoll,
		Customer:    payment.Customer{Email: payment.StringPtr("ada@example.com")},
		IngestedAt:  ingested,
	}

	v := NewFromPayment(p, "wine", decimal.NewFromInt(100))

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "ref_1", v.Reference)
	assert.Equal(t, "wine", v.Color)
	assert.Equal(t, "Grace", v.Family)
	assert.Equal(t, int64(2), v.CalculatedVotes)
	assert.Equal(t, 100.0, v.PricePerVote)
	assert.Equal(t, 250.0, v.Amount)
	assert.Equal(t, shared.SourceVerificationPoll, v.Source)
	assert.Equal(t, ingested, v.CreatedAt)
	assert.Equal(t, "ada@example.com", v.VoterKey())
}

func TestNewFromPayment_ZeroVotes(t *testing.T) {
	p := &payment.Payment{Reference: "ref_small", Amount: 99, AmountMinor: 9900}

	v := NewFromPayment(p, "black", decimal.Zero)

	assert.Equal(t, int64(0), v.CalculatedVotes)
	assert.Equal(t, 100.0, v.PricePerVote, "non-positive price snapshots the default")
	assert.Equal(t, "", v.VoterKey())
}
