package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fellowship-vote-ledger/internal/api/middleware"
	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/domain/tally"
	reconciler "github.com/fellowship-vote-ledger/internal/reconciler/service"
)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, request *reconciler.Request) (*reconciler.Result, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.Result), args.Error(1)
}

func (m *MockReconciler) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent, correlationID string) (*reconciler.Result, error) {
	args := m.Called(ctx, event, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.Result), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RegisterPending(ctx context.Context, reg *service.PendingRegistration) (*pending.Marker, *payment.Payment, bool, error) {
	args := m.Called(ctx, reg)
	var marker *pending.Marker
	if v := args.Get(0); v != nil {
		marker = v.(*pending.Marker)
	}
	var committed *payment.Payment
	if v := args.Get(1); v != nil {
		committed = v.(*payment.Payment)
	}
	return marker, committed, args.Bool(2), args.Error(3)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, filters service.Filters, page, perPage int) ([]*payment.Payment, int64, error) {
	args := m.Called(ctx, filters, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*payment.Payment), args.Get(1).(int64), args.Error(2)
}

type MockStatisticsService struct {
	mock.Mock
}

func (m *MockStatisticsService) GetVoteStatistics(ctx context.Context, filters service.Filters) (*service.VoteStatistics, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VoteStatistics), args.Error(1)
}

func (m *MockStatisticsService) GetColorAggregate(ctx context.Context) (*tally.Aggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tally.Aggregate), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

func doRequest(r http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}
