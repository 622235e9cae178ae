package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/platform/messaging/producers"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// ReconcileRequestHandler feeds reconcile requests from Kafka into the pipeline
type ReconcileRequestHandler struct {
	reconciler service.ReconciliationService
	dlq        producers.DeadLetterPublisher
	logger     *slog.Logger
}

func NewReconcileRequestHandler(
	logger *slog.Logger,
	reconciler service.ReconciliationService,
	dlq producers.DeadLetterPublisher,
) *ReconcileRequestHandler {
	return &ReconcileRequestHandler{
		reconciler: reconciler,
		dlq:        dlq,
		logger:     logger,
	}
}

// HandleMessage returns nil when the offset may be committed. Only internal
// failures (store, context) return an error so the message is redelivered.
func (h *ReconcileRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ReconcileRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Sprintf("unmarshal failed: %s", err))
	}
	if err := request.Validate(); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Sprintf("invalid request: %s", err))
	}

	logger := h.logger.With("reference", request.Reference, "source", request.Source)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	result, err := h.reconciler.Reconcile(ctx, &service.Request{
		Reference:     request.Reference,
		Source:        request.Source,
		CorrelationID: request.CorrelationID,
	})

	switch {
	case err == nil:
		logger.Info("Reconcile request handled", "already_exists", result.AlreadyExists, "votes", result.Votes)
		return nil
	case errors.Is(err, service.ErrInProgress):
		logger.Info("Reference in flight elsewhere, skipping")
		return nil
	case errors.Is(err, service.ErrTransactionNotSuccessful), errors.Is(err, service.ErrProviderVerification):
		// The marker stays in place and the sweeper tries again later
		logger.Warn("Reference not confirmed by provider", "error", err)
		return nil
	default:
		logger.Error("Failed to reconcile reference", "error", err)
		return fmt.Errorf("reconcile %s failed: %w", request.Reference, err)
	}
}

func (h *ReconcileRequestHandler) deadLetter(ctx context.Context, key, value []byte, reason string) error {
	h.logger.Error("Unprocessable reconcile request", "message_key", string(key), "reason", reason)
	if h.dlq == nil {
		return errors.New(reason)
	}
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ", "message_key", string(key), "dlq_error", err)
		return fmt.Errorf("%s (dlq: %w)", reason, err)
	}
	return nil
}
