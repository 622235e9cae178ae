package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
)

func TestPaymentService_RegisterPending(t *testing.T) {
	ctx := context.Background()
	reg := &PendingRegistration{Reference: " ref_1 ", Color: "Wine", Family: "Joseph", Email: "Ama@Example.com"}

	t.Run("registers a new marker", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		markers := &MockMarkerRepo{}
		payments.On("GetByReference", ctx, "ref_1").Return(nil, payment.ErrPaymentNotFound{Reference: "ref_1"}).Once()
		markers.On("Register", ctx, mock.MatchedBy(func(m *pending.Marker) bool {
			return m.Reference == "ref_1" && *m.Color == "Wine" && *m.Email == "ama@example.com" && m.Username == nil
		})).Return(true, nil).Once()

		marker, committed, created, err := NewPaymentService(discardLogger(), payments, markers).RegisterPending(ctx, reg)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, committed)
		require.NotNil(t, marker)
		assert.Equal(t, "Joseph", *marker.Family)
		markers.AssertExpectations(t)
	})

	t.Run("committed reference returns the payment", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		markers := &MockMarkerRepo{}
		existing := &payment.Payment{Reference: "ref_1", Amount: 250}
		payments.On("GetByReference", ctx, "ref_1").Return(existing, nil).Once()

		marker, committed, created, err := NewPaymentService(discardLogger(), payments, markers).RegisterPending(ctx, reg)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Nil(t, marker)
		assert.Same(t, existing, committed)
		markers.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("duplicate registration returns the stored marker", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		markers := &MockMarkerRepo{}
		stored := &pending.Marker{Reference: "ref_1", Color: payment.StringPtr("black")}
		payments.On("GetByReference", ctx, "ref_1").Return(nil, payment.ErrPaymentNotFound{Reference: "ref_1"}).Once()
		markers.On("Register", ctx, mock.Anything).Return(false, nil).Once()
		markers.On("Get", ctx, "ref_1").Return(stored, nil).Once()

		marker, _, created, err := NewPaymentService(discardLogger(), payments, markers).RegisterPending(ctx, reg)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, stored, marker)
	})

	t.Run("missing color is rejected before any lookup", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		_, _, _, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).
			RegisterPending(ctx, &PendingRegistration{Reference: "ref_1"})
		assert.ErrorIs(t, err, pending.ErrMissingColor)
		payments.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
	})

	t.Run("missing reference", func(t *testing.T) {
		_, _, _, err := NewPaymentService(discardLogger(), &MockPaymentRepo{}, &MockMarkerRepo{}).
			RegisterPending(ctx, &PendingRegistration{Color: "wine"})
		assert.ErrorIs(t, err, payment.ErrNoReference)
	})

	t.Run("ledger lookup failure", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		payments.On("GetByReference", ctx, "ref_1").Return(nil, errors.New("mongo down")).Once()

		_, _, _, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).RegisterPending(ctx, reg)
		require.Error(t, err)
	})
}

func TestPaymentService_GetPayment(t *testing.T) {
	ctx := context.Background()
	payments := &MockPaymentRepo{}
	payments.On("GetByReference", ctx, "missing").Return(nil, payment.ErrPaymentNotFound{Reference: "missing"}).Once()

	_, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound{})
}

func TestPaymentService_ListPayments(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	want := payment.ListFilter{Color: "Wine", Family: "Grace", From: &from}
	page := []*payment.Payment{{Reference: "ref_4"}, {Reference: "ref_3"}}

	t.Run("offset from page", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		payments.On("List", ctx, want, 2, 2).Return(page, nil).Once()
		payments.On("Count", ctx, want).Return(int64(4), nil).Once()

		got, total, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).
			ListPayments(ctx, Filters{Color: " Wine ", Family: "Grace", From: &from}, 2, 2)

		require.NoError(t, err)
		assert.Equal(t, page, got)
		assert.Equal(t, int64(4), total)
		payments.AssertExpectations(t)
	})

	t.Run("defaults out of range paging", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		payments.On("List", ctx, payment.ListFilter{}, DefaultPerPage, 0).Return([]*payment.Payment{}, nil).Once()
		payments.On("Count", ctx, payment.ListFilter{}).Return(int64(0), nil).Once()

		_, _, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).ListPayments(ctx, Filters{}, 0, 0)
		require.NoError(t, err)
		payments.AssertExpectations(t)
	})

	t.Run("count failure", func(t *testing.T) {
		payments := &MockPaymentRepo{}
		payments.On("List", ctx, mock.Anything, mock.Anything, mock.Anything).Return(page, nil).Once()
		payments.On("Count", ctx, mock.Anything).Return(int64(0), errors.New("mongo down")).Once()

		_, _, err := NewPaymentService(discardLogger(), payments, &MockMarkerRepo{}).ListPayments(ctx, Filters{}, 1, 10)
		assert.Error(t, err)
	})
}
