package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fellowship-vote-ledger/internal/domain/ledger"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/observability/metrics"
	"github.com/fellowship-vote-ledger/internal/reconciler/guard"
)

// Request asks the pipeline to reconcile one reference
type Request struct {
	Reference     string
	Source        shared.Source
	CorrelationID string
	Hint          *payment.Metadata // Optional client-side metadata; the pending marker is used when nil
}

// Result describes what the pipeline did
type Result struct {
	Payment       *payment.Payment
	AlreadyExists bool
	Ignored       bool
	Votes         int64
}

// Dependencies groups everything the pipeline talks to
type Dependencies struct {
	Payments payment.Repository
	Store    ledger.Store
	Guard    guard.Guard
	Families FamilyResolver
	Hints    HintLoader

	// Verifier is used for webhook and sweeper sources. PollVerifier, when set,
	// replaces it for verification polls.
	Verifier     payment.Verifier
	PollVerifier payment.Verifier

	Observer Observer
}

type ReconciliationServiceImpl struct {
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
}

func NewReconciliationService(deps Dependencies, logger *slog.Logger) *ReconciliationServiceImpl {
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	return &ReconciliationServiceImpl{
		deps:   deps,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhookEvent acknowledges every event type but only reconciles charge.success
func (s *ReconciliationServiceImpl) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent, correlationID string) (*Result, error) {
	if !event.IsChargeSuccess() {
		s.logger.Info("Ignoring webhook event", "event", event.Event, "reference", event.Data.Reference)
		s.deps.Observer.ObserveReconcile(string(shared.SourceWebhook), metrics.OutcomeIgnored)
		return &Result{Ignored: true}, nil
	}

	return s.Reconcile(ctx, &Request{
		Reference:     event.Data.Reference,
		Source:        shared.SourceWebhook,
		CorrelationID: correlationID,
	})
}

// Reconcile runs the pipeline: ledger fast path, guard, ledger re-check, provider
// verification, family resolution and the atomic commit.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, request *Request) (*Result, error) {
	reference := strings.TrimSpace(request.Reference)
	if reference == "" {
		return nil, shared.ErrMissingReference
	}
	source := request.Source
	if !source.Valid() {
		return nil, shared.ErrInvalidSource
	}

	logger := s.logger.With("reference", reference, "source", source)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	// 1. Fast-path idempotency check, avoids a provider call
	if existing, err := s.committedPayment(ctx, reference); err != nil {
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeError)
		return nil, err
	} else if existing != nil {
		logger.Info("Reference already committed")
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeAlreadyExists)
		return alreadyExists(existing), nil
	}

	// 2. In-flight guard
	release, ok, err := s.deps.Guard.TryAcquire(ctx, reference)
	if err != nil {
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeError)
		return nil, fmt.Errorf("failed to acquire in-flight guard: %w", err)
	}
	if !ok {
		logger.Info("Reference already in flight")
		s.deps.Observer.ObserveGuardContention(string(source))
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeInProgress)
		return nil, ErrInProgress
	}
	defer release()

	// 3. A racer may have committed and released between 1 and 2
	if existing, err := s.committedPayment(ctx, reference); err != nil {
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeError)
		return nil, err
	} else if existing != nil {
		logger.Info("Reference committed while waiting for guard")
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeAlreadyExists)
		return alreadyExists(existing), nil
	}

	// 4. Provider verification
	tx, err := s.verifierFor(source).VerifyTransaction(ctx, reference)
	if err != nil {
		logger.Warn("Provider verification failed", "error", err)
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeProviderError)
		return nil, fmt.Errorf("%w: %w", ErrProviderVerification, err)
	}
	if tx.Reference != reference {
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeProviderError)
		return nil, fmt.Errorf("%w: provider returned reference %q", ErrProviderVerification, tx.Reference)
	}
	if err := tx.Validate(); err != nil {
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeProviderError)
		return nil, fmt.Errorf("%w: %w", ErrProviderVerification, err)
	}
	if !tx.Succeeded() {
		logger.Info("Transaction not successful", "status", tx.Status, "gateway_response", tx.GatewayResponse)
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeNotSuccessful)
		return nil, &NotSuccessfulError{Reference: reference, Status: tx.Status, GatewayResponse: tx.GatewayResponse}
	}

	// 5. Client hint and family
	hint := request.Hint
	if hint == nil && s.deps.Hints != nil {
		hint = s.deps.Hints.LoadHint(ctx, reference)
	}
	tx.ApplyHint(hint)

	family := payment.GuestFamily
	if s.deps.Families != nil {
		family = s.deps.Families.Resolve(ctx, tx)
	}

	// 6. Atomic commit
	p := tx.ToPayment(source, family, s.now())
	committed, err := s.deps.Store.Commit(ctx, &ledger.CommitRequest{
		Payment: p,
		Color:   tally.NormalizeColor(p.Color()),
	})
	if err != nil {
		logger.Error("Commit failed", "error", err)
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeError)
		return nil, err
	}

	if committed.AlreadyExisted {
		logger.Info("Reference committed concurrently, returning stored payment")
		s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeAlreadyExists)
		return alreadyExists(committed.Payment), nil
	}

	result := &Result{Payment: committed.Payment}
	if committed.Vote != nil {
		result.Votes = committed.Vote.CalculatedVotes
	}

	logger.Info("Payment committed",
		"amount", committed.Payment.Amount,
		"color", committed.Payment.Color(),
		"family", committed.Payment.Family,
		"votes", result.Votes)
	s.deps.Observer.ObserveReconcile(string(source), metrics.OutcomeCommitted)

	return result, nil
}

func (s *ReconciliationServiceImpl) committedPayment(ctx context.Context, reference string) (*payment.Payment, error) {
	p, err := s.deps.Payments.GetByReference(ctx, reference)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, payment.ErrPaymentNotFound{}) {
		return nil, nil
	}
	return nil, fmt.Errorf("idempotency check failed for %s: %w", reference, err)
}

func (s *ReconciliationServiceImpl) verifierFor(source shared.Source) payment.Verifier {
	if source == shared.SourceVerificationPoll && s.deps.PollVerifier != nil {
		return s.deps.PollVerifier
	}
	return s.deps.Verifier
}

func alreadyExists(p *payment.Payment) *Result {
	return &Result{Payment: p, AlreadyExists: true}
}
