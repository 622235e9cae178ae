package components

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fellowship-vote-ledger/internal/domain/member"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/reconciler/service"
)

type FamilyResolverImpl struct {
	members     member.Repository
	emailDomain string
	logger      *slog.Logger
}

// NewFamilyResolver resolves families from metadata, then the member directory.
// emailDomain, when set, lets an address like tobi@domain stand for username tobi.
func NewFamilyResolver(members member.Repository, emailDomain string, logger *slog.Logger) service.FamilyResolver {
	return &FamilyResolverImpl{
		members:     members,
		emailDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(emailDomain), "@")),
		logger:      logger,
	}
}

// Resolve never fails: lookup errors are logged and the chain falls through to Guest
func (r *FamilyResolverImpl) Resolve(ctx context.Context, tx *payment.NormalizedTransaction) string {
	if f := trimmed(tx.Metadata.Family); f != "" {
		return f
	}

	username := r.username(tx)
	if username == "" || r.members == nil {
		return payment.GuestFamily
	}

	m, err := r.members.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, member.ErrMemberNotFound{}) {
			r.logger.Warn("Member lookup failed, using fallback family",
				"reference", tx.Reference,
				"username", username,
				"error", err)
		}
		return payment.GuestFamily
	}
	if m.HasFamily() {
		return *m.Family
	}
	return payment.GuestFamily
}

func (r *FamilyResolverImpl) username(tx *payment.NormalizedTransaction) string {
	if u := trimmed(tx.Metadata.Username); u != "" {
		return u
	}
	if u := trimmed(tx.Customer.Username); u != "" {
		return u
	}
	if r.emailDomain == "" {
		return ""
	}
	for _, email := range []*string{tx.Metadata.Email, tx.Customer.Email} {
		local, domain, ok := strings.Cut(strings.ToLower(trimmed(email)), "@")
		if ok && local != "" && domain == r.emailDomain {
			return local
		}
	}
	return ""
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
