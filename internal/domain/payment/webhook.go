package payment

import "encoding/json"

// EventChargeSuccess is the only webhook event that produces a commit
const EventChargeSuccess = "charge.success"

// WebhookEvent is an inbound provider notification. Only the reference is trusted;
// the rest of the payload is re-fetched from the provider before committing.
type WebhookEvent struct {
	Event string      `json:"event" binding:"required"`
	Data  WebhookData `json:"data"`
}

// WebhookData is the subset of the event payload the pipeline reads
type WebhookData struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	Metadata  json.RawMessage `json:"metadata"`
}

// IsChargeSuccess reports whether the event should be reconciled
func (e *WebhookEvent) IsChargeSuccess() bool {
	return e.Event == EventChargeSuccess
}
