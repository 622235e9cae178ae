package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fellowship-vote-ledger/internal/domain/member"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var memberColumns = []string{"username", "email", "full_name", "family", "created_at", "updated_at"}

func TestMemberRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MemberRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()
	family := "Grace"
	query := regexp.QuoteMeta(selectMemberByUsername)

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(memberColumns).AddRow("ada", "ada@fellowship.org", "Ada L", &family, now, now)
		mock.ExpectQuery(query).WithArgs("ada").WillReturnRows(rows)

		m, err := repo.GetByUsername(ctx, " ada ")
		require.NoError(t, err)
		assert.Equal(t, "ada", m.Username)
		assert.True(t, m.HasFamily())
		assert.Equal(t, "Grace", *m.Family)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null family", func(t *testing.T) {
		rows := pgxmock.NewRows(memberColumns).AddRow("bo", "bo@fellowship.org", "Bo", nil, now, now)
		mock.ExpectQuery(query).WithArgs("bo").WillReturnRows(rows)

		m, err := repo.GetByUsername(ctx, "bo")
		require.NoError(t, err)
		assert.Nil(t, m.Family)
		assert.False(t, m.HasFamily())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

		m, err := repo.GetByUsername(ctx, "ghost")
		assert.Nil(t, m)
		var notFound member.ErrMemberNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ghost", notFound.Key)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		mock.ExpectQuery(query).WithArgs("ada").WillReturnError(dbErr)

		m, err := repo.GetByUsername(ctx, "ada")
		assert.Nil(t, m)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to get member")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MemberRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()
	family := "Hope"

	rows := pgxmock.NewRows(memberColumns).AddRow("cy", "Cy@Fellowship.org", "Cy", &family, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(selectMemberByEmail)).WithArgs("cy@fellowship.org").WillReturnRows(rows)

	m, err := repo.GetByEmail(ctx, "cy@fellowship.org")
	require.NoError(t, err)
	assert.Equal(t, "cy", m.Username)
	assert.Equal(t, "Hope", *m.Family)
	assert.NoError(t, mock.ExpectationsWereMet())
}
