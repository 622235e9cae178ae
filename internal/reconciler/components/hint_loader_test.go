package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fellowship-vote-ledger/internal/domain/pending"
)

type MockPendingRepo struct {
	mock.Mock
}

func (m *MockPendingRepo) Register(ctx context.Context, marker *pending.Marker) (bool, error) {
	args := m.Called(ctx, marker)
	return args.Bool(0), args.Error(1)
}

func (m *MockPendingRepo) Get(ctx context.Context, reference string) (*pending.Marker, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pending.Marker), args.Error(1)
}

func (m *MockPendingRepo) ListStale(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*pending.Marker, error) {
	args := m.Called(ctx, olderThan, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pending.Marker), args.Error(1)
}

func (m *MockPendingRepo) IncrementAttempts(ctx context.Context, reference string, at time.Time) error {
	args := m.Called(ctx, reference, at)
	return args.Error(0)
}

func TestPendingHintLoader(t *testing.T) {
	marker, err := pending.NewMarker("ref_1", "Wine", "Joseph", "tobi", "", time.Now())
	require.NoError(t, err)

	repo := &MockPendingRepo{}
	repo.On("Get", mock.Anything, "ref_1").Return(marker, nil).Once()
	repo.On("Get", mock.Anything, "ref_missing").Return(nil, pending.ErrMarkerNotFound{Reference: "ref_missing"}).Once()
	repo.On("Get", mock.Anything, "ref_err").Return(nil, errors.New("timeout")).Once()

	loader := NewPendingHintLoader(repo, discardLogger())

	hint := loader.LoadHint(context.Background(), "ref_1")
	require.NotNil(t, hint)
	assert.Equal(t, "Wine", *hint.Color)
	assert.Equal(t, "Joseph", *hint.Family)
	assert.Equal(t, "tobi", *hint.Username)
	assert.Nil(t, hint.Email)

	assert.Nil(t, loader.LoadHint(context.Background(), "ref_missing"))
	assert.Nil(t, loader.LoadHint(context.Background(), "ref_err"))
	repo.AssertExpectations(t)
}
