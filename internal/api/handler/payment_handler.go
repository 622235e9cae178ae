package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/middleware"
	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/pending"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	reconciler "github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// PaymentHandler serves verification polls, pending registration and lookups
type PaymentHandler struct {
	reconciler service.Reconciler
	payments   service.PaymentService
	logger     *slog.Logger
}

func NewPaymentHandler(logger *slog.Logger, reconciler service.Reconciler, payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		reconciler: reconciler,
		payments:   payments,
		logger:     logger,
	}
}

// Verify is the client-side poll after the provider redirect
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Reference is required")
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), &reconciler.Request{
		Reference:     req.Reference,
		Source:        shared.SourceVerificationPoll,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondReconcileError(c, h.logger, req.Reference, err)
		return
	}

	if result.AlreadyExists {
		RespondAlreadyExists(c, result.Payment)
		return
	}
	RespondCommitted(c, result.Payment, result.Votes)
}

// RegisterPending stores the client's color choice before the provider redirect
func (h *PaymentHandler) RegisterPending(c *gin.Context) {
	var req RegisterPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	marker, committed, created, err := h.payments.RegisterPending(c.Request.Context(), &service.PendingRegistration{
		Reference: req.Reference,
		Color:     req.Color,
		Family:    req.Family,
		Username:  req.Username,
		Email:     req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNoReference), errors.Is(err, pending.ErrMissingColor):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to register pending verification", "reference", req.Reference, "error", err)
			RespondInternalError(c)
		}
		return
	}

	if committed != nil {
		RespondAlreadyExists(c, committed)
		return
	}
	if !created {
		RespondOK(c, marker)
		return
	}
	RespondCreated(c, marker)
}

// Get returns a committed payment, 404 if the reference was never committed
func (h *PaymentHandler) Get(c *gin.Context) {
	reference := c.Param("reference")

	p, err := h.payments.GetPayment(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to get payment", "reference", reference, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, p)
}

// List answers GET /payments?page=&per_page=&color=&family=&from=&to=
func (h *PaymentHandler) List(c *gin.Context) {
	var q PaymentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	filters, msg := q.filters()
	if msg != "" {
		RespondBadRequest(c, msg)
		return
	}

	payments, total, err := h.payments.ListPayments(c.Request.Context(), filters, q.Page, q.PerPage)
	if err != nil {
		h.logger.Error("Failed to list payments", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, payments, q.Page, q.PerPage, int(total))
}
