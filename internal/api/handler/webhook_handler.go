package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/middleware"
	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/platform/paystack"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives Paystack event notifications
type WebhookHandler struct {
	reconciler      service.Reconciler
	secret          string
	verifySignature bool
	logger          *slog.Logger
}

func NewWebhookHandler(logger *slog.Logger, reconciler service.Reconciler, cfg *config.PaystackConfig) *WebhookHandler {
	return &WebhookHandler{
		reconciler:      reconciler,
		secret:          cfg.SecretKey,
		verifySignature: cfg.VerifySignature,
		logger:          logger,
	}
}

// Handle authenticates the raw body, then reconciles charge.success events.
// Every other event type is acknowledged without side effects.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		RespondBadRequest(c, "Unable to read request body")
		return
	}

	if h.verifySignature {
		if err := paystack.VerifySignature(h.secret, body, c.GetHeader(paystack.SignatureHeader)); err != nil {
			h.logger.Warn("Rejected webhook", "error", err, "client_ip", c.ClientIP())
			RespondUnauthorized(c, "Invalid signature")
			return
		}
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || strings.TrimSpace(event.Event) == "" {
		RespondBadRequest(c, "Malformed webhook payload")
		return
	}

	logger := h.logger.With("event", event.Event, "reference", event.Data.Reference)
	if event.IsChargeSuccess() && strings.TrimSpace(event.Data.Reference) == "" {
		logger.Warn("charge.success without reference")
		RespondBadRequest(c, "Reference is required")
		return
	}

	result, err := h.reconciler.HandleWebhookEvent(c.Request.Context(), &event, middleware.GetCorrelationID(c))
	if err != nil {
		respondReconcileError(c, logger, event.Data.Reference, err)
		return
	}

	switch {
	case result.Ignored:
		RespondMessage(c, http.StatusOK, "Event ignored")
	case result.AlreadyExists:
		respond(c, http.StatusOK, &Response{Success: true, Message: "Payment already processed", AlreadyExists: true})
	default:
		RespondMessage(c, http.StatusOK, "Payment processed")
	}
}
