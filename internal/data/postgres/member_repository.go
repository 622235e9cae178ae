// Package postgres provides the PostgreSQL implementation of the member directory.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fellowship-vote-ledger/internal/domain/member"
	"github.com/fellowship-vote-ledger/internal/platform/persistence"
)

const (
	selectMemberByUsername = `
		SELECT username, email, full_name, family, created_at, updated_at
		FROM members
		WHERE username = $1
	`
	selectMemberByEmail = `
		SELECT username, email, full_name, family, created_at, updated_at
		FROM members
		WHERE LOWER(email) = LOWER($1)
	`
)

// MemberRepository implements the member.Repository interface for PostgreSQL
type MemberRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMemberRepository creates a new PostgreSQL member repository
func NewMemberRepository(logger *slog.Logger, db *persistence.PostgresDB) *MemberRepository {
	return &MemberRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByUsername looks a member up by username
func (r *MemberRepository) GetByUsername(ctx context.Context, username string) (*member.Member, error) {
	username = strings.TrimSpace(username)
	return r.getOne(ctx, selectMemberByUsername, username)
}

// GetByEmail looks a member up by email, case-insensitively
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*member.Member, error) {
	email = strings.TrimSpace(email)
	return r.getOne(ctx, selectMemberByEmail, email)
}

func (r *MemberRepository) getOne(ctx context.Context, query, key string) (*member.Member, error) {
	var m member.Member
	err := r.querier.QueryRow(ctx, query, key).Scan(
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.Family,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrMemberNotFound{Key: key}
		}
		r.logger.Error("Failed to get member", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}
