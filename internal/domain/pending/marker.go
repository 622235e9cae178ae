// Package pending models pending-verification markers registered by clients before
// they are redirected to the payment provider.
package pending

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fellowship-vote-ledger/internal/domain/payment"
)

var ErrMissingColor = errors.New("color is required")

// Marker records that a reference is awaiting confirmation. It is deleted by the
// reconciliation commit.
type Marker struct {
	Reference     string     `json:"reference" bson:"reference"`
	Color         *string    `json:"color" bson:"color"`
	Family        *string    `json:"family" bson:"family"`
	Username      *string    `json:"username" bson:"username"`
	Email         *string    `json:"email" bson:"email"`
	Attempts      int        `json:"attempts" bson:"attempts"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at" bson:"last_attempt_at"`
}

// NewMarker validates and builds a marker
func NewMarker(reference, color, family, username, email string, now time.Time) (*Marker, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, payment.ErrNoReference
	}
	if strings.TrimSpace(color) == "" {
		return nil, ErrMissingColor
	}
	return &Marker{
		Reference: reference,
		Color:     payment.StringPtr(strings.TrimSpace(color)),
		Family:    payment.StringPtr(strings.TrimSpace(family)),
		Username:  payment.StringPtr(strings.TrimSpace(username)),
		Email:     payment.StringPtr(strings.ToLower(strings.TrimSpace(email))),
		CreatedAt: now,
	}, nil
}

// Hint returns the marker's client-supplied fields as transaction metadata
func (m *Marker) Hint() *payment.Metadata {
	return &payment.Metadata{
		Color:    m.Color,
		Family:   m.Family,
		Username: m.Username,
		Email:    m.Email,
	}
}

// Repository manages pending markers
type Repository interface {
	Register(ctx context.Context, marker *Marker) (bool, error)
	Get(ctx context.Context, reference string) (*Marker, error)
	ListStale(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Marker, error)
	IncrementAttempts(ctx context.Context, reference string, at time.Time) error
}

// ErrMarkerNotFound indicates no marker exists for a reference
type ErrMarkerNotFound struct {
	Reference string
}

func (e ErrMarkerNotFound) Error() string {
	return "pending marker not found: " + e.Reference
}

func (e ErrMarkerNotFound) Is(target error) bool {
	t, ok := target.(ErrMarkerNotFound)
	if !ok {
		return false
	}
	return t.Reference == "" || e.Reference == t.Reference
}
