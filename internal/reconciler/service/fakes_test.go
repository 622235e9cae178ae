package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fellowship-vote-ledger/internal/domain/ledger"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	"github.com/fellowship-vote-ledger/internal/domain/vote"
	"github.com/fellowship-vote-ledger/internal/reconciler/guard"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryLedger is an all-or-nothing store backed by maps, standing in for the
// Mongo transaction. It implements both payment.Repository and ledger.Store.
type memoryLedger struct {
	mu       sync.Mutex
	price    decimal.Decimal
	payments map[string]*payment.Payment
	votes    []*vote.Vote
	pending  map[string]bool
	commits  atomic.Int32

	failCommit  error
	panicCommit bool
}

func newMemoryLedger(price int64) *memoryLedger {
	return &memoryLedger{
		price:    decimal.NewFromInt(price),
		payments: make(map[string]*payment.Payment),
		pending:  make(map[string]bool),
	}
}

func (m *memoryLedger) GetByReference(_ context.Context, reference string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		return p, nil
	}
	return nil, payment.ErrPaymentNotFound{Reference: reference}
}

func (m *memoryLedger) List(context.Context, payment.ListFilter, int, int) ([]*payment.Payment, error) {
	return nil, nil
}

func (m *memoryLedger) Count(context.Context, payment.ListFilter) (int64, error) {
	return int64(len(m.payments)), nil
}

func (m *memoryLedger) Commit(_ context.Context, req *ledger.CommitRequest) (*ledger.CommitResult, error) {
	if m.panicCommit {
		panic("commit exploded")
	}
	if m.failCommit != nil {
		return nil, m.failCommit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.payments[req.Payment.Reference]; ok {
		return &ledger.CommitResult{Payment: existing, AlreadyExisted: true}, nil
	}

	m.commits.Add(1)
	m.payments[req.Payment.Reference] = req.Payment
	res := &ledger.CommitResult{Payment: req.Payment}
	if req.Color != "" {
		v := vote.NewFromPayment(req.Payment, req.Color, m.price)
		m.votes = append(m.votes, v)
		res.Vote = v
	}
	delete(m.pending, req.Payment.Reference)
	return res, nil
}

func (m *memoryLedger) aggregate() *tally.Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tally.Rebuild(m.votes, tally.DefaultLogLimit, time.Now())
}

func (m *memoryLedger) voteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.votes)
}

// fakeVerifier answers from a per-reference table
type fakeVerifier struct {
	mu    sync.Mutex
	txs   map[string]*payment.NormalizedTransaction
	errs  map[string]error
	calls atomic.Int32
	delay time.Duration
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		txs:  make(map[string]*payment.NormalizedTransaction),
		errs: make(map[string]error),
	}
}

func (f *fakeVerifier) succeed(reference string, amountMinor int64, color, family string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, reference)
	f.txs[reference] = &payment.NormalizedTransaction{
		Reference:   reference,
		Status:      payment.StatusSuccess,
		AmountMinor: amountMinor,
		Currency:    "NGN",
		Customer:    payment.Customer{Email: payment.StringPtr("ada@example.com")},
		Metadata: payment.Metadata{
			Color:  payment.StringPtr(color),
			Family: payment.StringPtr(family),
			Extra:  map[string]any{},
		},
	}
}

func (f *fakeVerifier) fail(reference string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[reference] = err
}

func (f *fakeVerifier) VerifyTransaction(_ context.Context, reference string) (*payment.NormalizedTransaction, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[reference]; ok {
		return nil, err
	}
	tx, ok := f.txs[reference]
	if !ok {
		return nil, payment.ErrNoReference
	}
	cp := *tx
	return &cp, nil
}

// openGuard always grants the reference, leaving exclusivity to the store
type openGuard struct{}

func (openGuard) TryAcquire(context.Context, string) (guard.Release, bool, error) {
	return func() {}, true, nil
}

type MockFamilyResolver struct {
	mock.Mock
}

func (m *MockFamilyResolver) Resolve(ctx context.Context, tx *payment.NormalizedTransaction) string {
	args := m.Called(ctx, tx)
	return args.String(0)
}

type MockHintLoader struct {
	mock.Mock
}

func (m *MockHintLoader) LoadHint(ctx context.Context, reference string) *payment.Metadata {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*payment.Metadata)
}

type recordingObserver struct {
	mu         sync.Mutex
	outcomes   []string
	contention int
}

func (r *recordingObserver) ObserveReconcile(_, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingObserver) ObserveGuardContention(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contention++
}
