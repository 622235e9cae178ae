// Package member models the fellowship member directory used to resolve families.
package member

import (
	"context"
	"time"
)

// Member is a directory entry
type Member struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Family    *string   `json:"family"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFamily reports whether the member has a non-empty family
func (m *Member) HasFamily() bool {
	return m != nil && m.Family != nil && *m.Family != ""
}

// Repository looks members up in the directory
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
}

// ErrMemberNotFound indicates the directory has no matching member
type ErrMemberNotFound struct {
	Key string
}

func (e ErrMemberNotFound) Error() string {
	return "member not found: " + e.Key
}

// Is implements the errors.Is interface for ErrMemberNotFound
func (e ErrMemberNotFound) Is(target error) bool {
	t, ok := target.(ErrMemberNotFound)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}
