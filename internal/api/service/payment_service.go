package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
)

// DefaultPerPage is the payments page size when none is given
const DefaultPerPage = 20

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	payments payment.Repository
	markers  pending.Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(logger *slog.Logger, payments payment.Repository, markers pending.Repository) PaymentService {
	return &PaymentServiceImpl{
		payments: payments,
		markers:  markers,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentServiceImpl) RegisterPending(ctx context.Context, reg *PendingRegistration) (*pending.Marker, *payment.Payment, bool, error) {
	marker, err := pending.NewMarker(reg.Reference, reg.Color, reg.Family, reg.Username, reg.Email, s.now())
	if err != nil {
		return nil, nil, false, err
	}

	existing, err := s.payments.GetByReference(ctx, marker.Reference)
	if err == nil {
		s.logger.Info("Pending registration for committed reference", "reference", marker.Reference)
		return nil, existing, false, nil
	}
	if !errors.Is(err, payment.ErrPaymentNotFound{}) {
		return nil, nil, false, err
	}

	created, err := s.markers.Register(ctx, marker)
	if err != nil {
		return nil, nil, false, err
	}
	if !created {
		current, err := s.markers.Get(ctx, marker.Reference)
		if err != nil {
			return nil, nil, false, err
		}
		return current, nil, false, nil
	}

	s.logger.Info("Pending verification registered", "reference", marker.Reference, "color", *marker.Color)
	return marker, nil, true, nil
}

func (s *PaymentServiceImpl) GetPayment(ctx context.Context, reference string) (*payment.Payment, error) {
	return s.payments.GetByReference(ctx, reference)
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context, filters Filters, page, perPage int) ([]*payment.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	offset := (page - 1) * perPage

	filter := payment.ListFilter{
		Color:  strings.TrimSpace(filters.Color),
		Family: strings.TrimSpace(filters.Family),
		From:   filters.From,
		To:     filters.To,
	}

	payments, err := s.payments.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.payments.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}
