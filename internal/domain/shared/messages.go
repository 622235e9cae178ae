package shared

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingReference = errors.New("reference is required")
	ErrInvalidSource    = errors.New("invalid source")
)

// ReconcileRequest is the Kafka message asking the reconciler to verify a reference
type ReconcileRequest struct {
	Reference     string    `json:"reference"`
	Source        Source    `json:"source"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// Validate checks the request carries a usable reference and source
func (r *ReconcileRequest) Validate() error {
	if strings.TrimSpace(r.Reference) == "" {
		return ErrMissingReference
	}
	if !r.Source.Valid() {
		return ErrInvalidSource
	}
	return nil
}

// VoteRecordedEvent is published once per committed vote
type VoteRecordedEvent struct {
	Reference    string    `json:"reference"`
	VoteID       string    `json:"vote_id"`
	Color        string    `json:"color"`
	Family       string    `json:"family"`
	Votes        int64     `json:"votes"`
	Amount       float64   `json:"amount"`
	PricePerVote float64   `json:"price_per_vote"`
	Currency     string    `json:"currency"`
	Source       Source    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at"`
}
