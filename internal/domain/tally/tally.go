// Package tally holds the per-color aggregate materialized over committed votes.
package tally

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// AggregateID is the _id of the single aggregate document
const AggregateID = "colors"

// DefaultLogLimit bounds the per-color contribution log
const DefaultLogLimit = 100

// Contribution is one entry of a color's bounded transaction log
type Contribution struct {
	Reference string    `json:"reference" bson:"reference"`
	Amount    float64   `json:"amount" bson:"amount"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Email     *string   `json:"email" bson:"email"`
	Username  *string   `json:"username" bson:"username"`
	Votes     int64     `json:"votes" bson:"votes"`
	Family    string    `json:"family" bson:"family"`
}

// ColorTally is the running total for one color
type ColorTally struct {
	Votes        int64          `json:"votes" bson:"votes"`
	Amount       float64        `json:"amount" bson:"amount"`
	Transactions []Contribution `json:"transactions" bson:"transactions"`
}

// Aggregate is the stats document keyed by color
type Aggregate struct {
	ID        string                `json:"id" bson:"_id"`
	Colors    map[string]ColorTally `json:"colors" bson:"colors"`
	Version   int64                 `json:"version" bson:"version"`
	UpdatedAt time.Time             `json:"updated_at" bson:"updated_at"`
}

// Repository reads and repairs the aggregate. Incremental updates happen inside
// the reconciliation commit.
type Repository interface {
	Get(ctx context.Context) (*Aggregate, error)
	Replace(ctx context.Context, agg *Aggregate) error
}

// NormalizeColor lowercases and trims a color so it is safe as a document field name
func NormalizeColor(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	c = strings.ReplaceAll(c, ".", "_")
	return strings.ReplaceAll(c, "$", "_")
}

// ContributionFromVote builds the log entry recorded for a vote
func ContributionFromVote(v *vote.Vote) Contribution {
	return Contribution{
		Reference: v.Reference,
		Amount:    v.Amount,
		Timestamp: v.CreatedAt,
		Email:     v.Email,
		Username:  v.Username,
		Votes:     v.CalculatedVotes,
		Family:    v.Family,
	}
}

// Rebuild recomputes the aggregate from the full set of committed votes.
// Each color keeps its newest logLimit contributions in chronological order.
func Rebuild(votes []*vote.Vote, logLimit int, now time.Time) *Aggregate {
	if logLimit <= 0 {
		logLimit = DefaultLogLimit
	}

	sorted := make([]*vote.Vote, len(votes))
	copy(sorted, votes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	amounts := make(map[string]decimal.Decimal)
	colors := make(map[string]ColorTally)
	for _, v := range sorted {
		color := NormalizeColor(v.Color)
		if color == "" {
			continue
		}
		ct := colors[color]
		ct.Votes += v.CalculatedVotes
		ct.Transactions = append(ct.Transactions, ContributionFromVote(v))
		if len(ct.Transactions) > logLimit {
			ct.Transactions = ct.Transactions[len(ct.Transactions)-logLimit:]
		}
		colors[color] = ct
		amounts[color] = amounts[color].Add(decimal.NewFromFloat(v.Amount))
	}

	for color, ct := range colors {
		ct.Amount, _ = amounts[color].Float64()
		colors[color] = ct
	}

	return &Aggregate{
		ID:        AggregateID,
		Colors:    colors,
		UpdatedAt: now,
	}
}
