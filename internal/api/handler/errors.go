package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/platform/paystack"
	reconciler "github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// respondReconcileError maps pipeline failures onto status codes. Provider
// problems are the caller's to retry, so they are 400 with the provider's view
// in details.
func respondReconcileError(c *gin.Context, logger *slog.Logger, reference string, err error) {
	var (
		notSuccessful *reconciler.NotSuccessfulError
		apiErr        *paystack.APIError
	)

	switch {
	case errors.Is(err, shared.ErrMissingReference), errors.Is(err, payment.ErrNoReference):
		RespondBadRequest(c, "Reference is required")
	case errors.Is(err, shared.ErrInvalidSource):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, reconciler.ErrInProgress):
		RespondInProgress(c)
	case errors.As(err, &notSuccessful):
		RespondError(c, http.StatusBadRequest, "Transaction was not successful", gin.H{
			"status":           notSuccessful.Status,
			"gateway_response": notSuccessful.GatewayResponse,
		})
	case errors.As(err, &apiErr):
		RespondError(c, http.StatusBadRequest, "Payment verification failed", gin.H{
			"status_code": apiErr.StatusCode,
			"message":     apiErr.Message,
			"body":        apiErr.Body,
		})
	case errors.Is(err, reconciler.ErrProviderVerification):
		RespondError(c, http.StatusBadRequest, "Payment verification failed", gin.H{"error": err.Error()})
	default:
		logger.Error("Reconciliation failed", "reference", reference, "error", err)
		RespondInternalError(c)
	}
}
