package paystack

import (
	"encoding/json"
	"fmt"
)

// verifyResponse is the body of GET /transaction/verify/:reference
type verifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    *transactionDTO `json:"data"`
}

type transactionDTO struct {
	ID              int64             `json:"id"`
	Status          string            `json:"status"`
	Reference       string            `json:"reference"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Channel         string            `json:"channel"`
	GatewayResponse string            `json:"gateway_response"`
	PaidAt          string            `json:"paid_at"`
	CreatedAt       string            `json:"created_at"`
	Metadata        json.RawMessage   `json:"metadata"`
	Customer        customerDTO       `json:"customer"`
	Authorization   *authorizationDTO `json:"authorization"`
}

type customerDTO struct {
	Email        string          `json:"email"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	CustomerCode string          `json:"customer_code"`
	Metadata     json.RawMessage `json:"metadata"`
}

type authorizationDTO struct {
	CardType string `json:"card_type"`
	Bank     string `json:"bank"`
	Last4    string `json:"last4"`
	Brand    string `json:"brand"`
	Channel  string `json:"channel"`
}

// APIError is a non-2xx or status:false reply from Paystack. Body keeps the raw
// payload for diagnostics.
type APIError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paystack api error: status %d", e.StatusCode)
}

// ServerError reports whether the provider failed with a 5xx
func (e *APIError) ServerError() bool {
	return e.StatusCode >= 500
}
