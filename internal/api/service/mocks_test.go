package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
)

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) List(ctx context.Context, filter payment.ListFilter, limit, offset int) ([]*payment.Payment, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) Count(ctx context.Context, filter payment.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockMarkerRepo struct {
	mock.Mock
}

func (m *MockMarkerRepo) Register(ctx context.Context, marker *pending.Marker) (bool, error) {
	args := m.Called(ctx, marker)
	return args.Bool(0), args.Error(1)
}

func (m *MockMarkerRepo) Get(ctx context.Context, reference string) (*pending.Marker, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pending.Marker), args.Error(1)
}

func (m *MockMarkerRepo) ListStale(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*pending.Marker, error) {
	args := m.Called(ctx, olderThan, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pending.Marker), args.Error(1)
}

func (m *MockMarkerRepo) IncrementAttempts(ctx context.Context, reference string, at time.Time) error {
	return m.Called(ctx, reference, at).Error(0)
}

type MockVoteRepo struct {
	mock.Mock
}

func (m *MockVoteRepo) List(ctx context.Context, filter vote.Filter) ([]*vote.Vote, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vote.Vote), args.Error(1)
}

func (m *MockVoteRepo) Recent(ctx context.Context, filter vote.Filter, limit int) ([]*vote.Vote, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vote.Vote), args.Error(1)
}

type MockTallyRepo struct {
	mock.Mock
}

func (m *MockTallyRepo) Get(ctx context.Context) (*tally.Aggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tally.Aggregate), args.Error(1)
}

func (m *MockTallyRepo) Replace(ctx context.Context, agg *tally.Aggregate) error {
	return m.Called(ctx, agg).Error(0)
}

type fixedPrice int64

func (p fixedPrice) PricePerVote(context.Context) decimal.Decimal {
	return decimal.NewFromInt(int64(p))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
