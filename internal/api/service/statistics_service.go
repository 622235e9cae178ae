package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

// DefaultRecentVotes is how many recent votes a statistics response carries
const DefaultRecentVotes = 10

// Bucket is a vote count with the money behind it
type Bucket struct {
	Votes  int64   `json:"votes"`
	Amount float64 `json:"amount"`
}

// VoteStatistics is the statistics response
type VoteStatistics struct {
	TotalVotes       int64                        `json:"totalVotes"`
	TotalAmount      float64                      `json:"totalAmount"`
	UniqueVoters     int                          `json:"uniqueVoters"`
	ColorVotes       map[string]Bucket            `json:"colorVotes"`
	FamilyVotes      map[string]Bucket            `json:"familyVotes"`
	FamilyColorVotes map[string]map[string]Bucket `json:"familyColorVotes"`
	RecentVotes      []*vote.Vote                 `json:"recentVotes"`
	Policy           string                       `json:"policy"`
	PricePerVote     float64                      `json:"pricePerVote"`
}

// StatisticsServiceImpl computes statistics from committed votes under one
// counting policy. The snapshot policy sums the stored vote counts; the
// current_price policy re-derives counts from amounts at today's price.
type StatisticsServiceImpl struct {
	votes       vote.Repository
	tallies     tally.Repository
	prices      PriceSource
	policy      string
	recentLimit int
	logger      *slog.Logger
}

func NewStatisticsService(logger *slog.Logger, votes vote.Repository, tallies tally.Repository, prices PriceSource, cfg *config.VotingConfig) StatisticsService {
	policy := cfg.StatsPolicy
	if policy != config.StatsPolicyCurrentPrice {
		policy = config.StatsPolicySnapshot
	}
	limit := cfg.RecentVotesLimit
	if limit <= 0 {
		limit = DefaultRecentVotes
	}
	return &StatisticsServiceImpl{
		votes:       votes,
		tallies:     tallies,
		prices:      prices,
		policy:      policy,
		recentLimit: limit,
		logger:      logger,
	}
}

func (s *StatisticsServiceImpl) GetVoteStatistics(ctx context.Context, filters Filters) (*VoteStatistics, error) {
	filter := vote.Filter{
		Color:  tally.NormalizeColor(filters.Color),
		Family: filters.Family,
		From:   filters.From,
		To:     filters.To,
	}

	votes, err := s.votes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	recent, err := s.votes.Recent(ctx, filter, s.recentLimit)
	if err != nil {
		return nil, err
	}

	price := s.prices.PricePerVote(ctx)
	stats := aggregate(votes, func(v *vote.Vote) int64 {
		if s.policy == config.StatsPolicyCurrentPrice {
			return vote.ComputeVotes(decimal.NewFromFloat(v.Amount), price)
		}
		return v.CalculatedVotes
	})
	stats.RecentVotes = recent
	stats.Policy = s.policy
	stats.PricePerVote, _ = price.Float64()

	s.logger.Debug("Computed vote statistics", "votes", len(votes), "policy", s.policy)
	return stats, nil
}

type amountBucket struct {
	votes  int64
	amount decimal.Decimal
}

func (b amountBucket) bucket() Bucket {
	amount, _ := b.amount.Float64()
	return Bucket{Votes: b.votes, Amount: amount}
}

func aggregate(votes []*vote.Vote, count func(v *vote.Vote) int64) *VoteStatistics {
	var (
		total       amountBucket
		colors      = map[string]amountBucket{}
		families    = map[string]amountBucket{}
		familyColor = map[string]map[string]amountBucket{}
		voters      = map[string]struct{}{}
	)

	add := func(b amountBucket, n int64, amount decimal.Decimal) amountBucket {
		b.votes += n
		b.amount = b.amount.Add(amount)
		return b
	}

	for _, v := range votes {
		n := count(v)
		amount := decimal.NewFromFloat(v.Amount)

		total = add(total, n, amount)
		colors[v.Color] = add(colors[v.Color], n, amount)
		families[v.Family] = add(families[v.Family], n, amount)
		if familyColor[v.Family] == nil {
			familyColor[v.Family] = map[string]amountBucket{}
		}
		familyColor[v.Family][v.Color] = add(familyColor[v.Family][v.Color], n, amount)

		if key := v.VoterKey(); key != "" {
			voters[key] = struct{}{}
		}
	}

	stats := &VoteStatistics{
		TotalVotes:       total.votes,
		UniqueVoters:     len(voters),
		ColorVotes:       make(map[string]Bucket, len(colors)),
		FamilyVotes:      make(map[string]Bucket, len(families)),
		FamilyColorVotes: make(map[string]map[string]Bucket, len(familyColor)),
	}
	stats.TotalAmount, _ = total.amount.Float64()
	for color, b := range colors {
		stats.ColorVotes[color] = b.bucket()
	}
	for family, b := range families {
		stats.FamilyVotes[family] = b.bucket()
	}
	for family, byColor := range familyColor {
		stats.FamilyColorVotes[family] = make(map[string]Bucket, len(byColor))
		for color, b := range byColor {
			stats.FamilyColorVotes[family][color] = b.bucket()
		}
	}
	return stats
}

func (s *StatisticsServiceImpl) GetColorAggregate(ctx context.Context) (*tally.Aggregate, error) {
	return s.tallies.Get(ctx)
}
