package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	reconciler "github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// Reconciler is the pipeline as seen by the HTTP layer
type Reconciler interface {
	// Reconcile verifies and commits one reference
	Reconcile(ctx context.Context, request *reconciler.Request) (*reconciler.Result, error)

	// HandleWebhookEvent reconciles charge.success events and ignores the rest
	HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent, correlationID string) (*reconciler.Result, error)
}

// PaymentService defines the read and registration operations on payments
type PaymentService interface {
	// RegisterPending records a marker for a reference the client is about to pay.
	// When the reference is already committed the payment is returned instead and
	// no marker is written. created is false when a marker already existed.
	RegisterPending(ctx context.Context, registration *PendingRegistration) (marker *pending.Marker, committed *payment.Payment, created bool, err error)

	// GetPayment returns the committed payment for a reference.
	// Returns payment.ErrPaymentNotFound when absent.
	GetPayment(ctx context.Context, reference string) (*payment.Payment, error)

	// ListPayments returns one page of committed payments, newest first, and the
	// total matching the filters
	ListPayments(ctx context.Context, filters Filters, page, perPage int) ([]*payment.Payment, int64, error)
}

// StatisticsService aggregates committed votes
type StatisticsService interface {
	GetVoteStatistics(ctx context.Context, filters Filters) (*VoteStatistics, error)

	// GetColorAggregate returns the materialized per-color totals with each
	// color's recent contributions
	GetColorAggregate(ctx context.Context) (*tally.Aggregate, error)
}

// PriceSource returns the price per vote currently configured
type PriceSource interface {
	PricePerVote(ctx context.Context) decimal.Decimal
}

// PendingRegistration is a client announcing an upcoming payment
type PendingRegistration struct {
	Reference string
	Color     string
	Family    string
	Username  string
	Email     string
}

// Filters narrows statistics
type Filters struct {
	Color  string
	Family string
	From   *time.Time
	To     *time.Time
}
