package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubRepository struct {
	app *App
	err error
}

func (s *stubRepository) GetApp(ctx context.Context) (*App, error) {
	return s.app, s.err
}

func TestPriceProvider_PricePerVote(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		repo *stubRepository
		want string
	}{
		{"configured price", &stubRepository{app: &App{Voting: Voting{PricePerVote: 50}}}, "50"},
		{"fractional price", &stubRepository{app: &App{Voting: Voting{PricePerVote: 2.5}}}, "2.5"},
		{"read error falls back", &stubRepository{err: errors.New("connection reset")}, "100"},
		{"missing document falls back", &stubRepository{}, "100"},
		{"zero price falls back", &stubRepository{app: &App{}}, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPriceProvider(logger, tt.repo, 100)
			assert.Equal(t, tt.want, p.PricePerVote(context.Background()).String())
		})
	}
}
