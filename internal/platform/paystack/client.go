// Package paystack is the Paystack implementation of payment.Verifier together
// with webhook signature checking.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

// maxResponseBytes caps how much of a provider reply is read
const maxResponseBytes = 1 << 20

// LatencyObserver receives the outcome and duration of each provider call
type LatencyObserver func(outcome string, elapsed time.Duration)

// Client calls the Paystack REST API with the secret key as bearer token
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
	observe    LatencyObserver
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLatencyObserver reports provider call latency, e.g. to metrics
func WithLatencyObserver(o LatencyObserver) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a Paystack client from configuration
func NewClient(logger *slog.Logger, cfg *config.PaystackConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:  logger,
		observe: func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyTransaction fetches the authoritative state of a transaction.
// Non-2xx replies and status:false bodies return *APIError. A transaction that
// exists but did not succeed is returned normally with its status.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*payment.NormalizedTransaction, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("transport_error", time.Since(start))
		return nil, fmt.Errorf("paystack verify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe("transport_error", time.Since(start))
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	var decoded verifyResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || !decoded.Status || decoded.Data == nil {
		c.observe(fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: decoded.Message, Body: rawOrString(body)}
		c.logger.Warn("Paystack verification rejected",
			"reference", reference,
			"status_code", resp.StatusCode,
			"message", decoded.Message)
		return nil, apiErr
	}
	c.observe("ok", time.Since(start))

	// Verify is keyed by reference; some replies omit it from data
	if strings.TrimSpace(decoded.Data.Reference) == "" {
		decoded.Data.Reference = reference
	}

	return normalize(decoded.Data)
}

func normalize(d *transactionDTO) (*payment.NormalizedTransaction, error) {
	md := decodeMetadata(d.Metadata)

	// Customer metadata is a secondary source for the voting fields
	if len(d.Customer.Metadata) > 0 {
		cmd := decodeMetadata(d.Customer.Metadata)
		md.Color = firstNonNil(md.Color, cmd.Color)
		md.Family = firstNonNil(md.Family, cmd.Family)
		md.Username = firstNonNil(md.Username, cmd.Username)
	}

	tx := &payment.NormalizedTransaction{
		Reference:       d.Reference,
		Status:          normalizeStatus(d.Status),
		AmountMinor:     d.Amount,
		Currency:        d.Currency,
		Channel:         payment.StringPtr(d.Channel),
		Metadata:        md,
		GatewayResponse: d.GatewayResponse,
		Customer: payment.Customer{
			Email:    payment.StringPtr(strings.ToLower(strings.TrimSpace(d.Customer.Email))),
			Name:     payment.StringPtr(strings.TrimSpace(d.Customer.FirstName + " " + d.Customer.LastName)),
			Username: md.Username,
		},
	}

	if d.Authorization != nil {
		tx.Authorization = &payment.Authorization{
			CardType: payment.StringPtr(strings.TrimSpace(d.Authorization.CardType)),
			Bank:     payment.StringPtr(d.Authorization.Bank),
			Last4:    payment.StringPtr(d.Authorization.Last4),
			Brand:    payment.StringPtr(d.Authorization.Brand),
			Channel:  payment.StringPtr(d.Authorization.Channel),
		}
	}

	if t, ok := parseTime(d.CreatedAt); ok {
		tx.CreatedAt = t
	}
	if t, ok := parseTime(d.PaidAt); ok {
		tx.PaidAt = &t
	}

	return tx, tx.Validate()
}

func normalizeStatus(s string) payment.Status {
	switch strings.ToLower(s) {
	case "success":
		return payment.StatusSuccess
	case "failed", "abandoned", "reversed":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// rawOrString keeps JSON bodies as-is and wraps anything else as a JSON string
func rawOrString(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	b, _ := json.Marshal(string(body))
	return b
}
