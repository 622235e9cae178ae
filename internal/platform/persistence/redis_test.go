package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fellowship-vote-ledger/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		client, err := NewRedisClient(ctx, logger, &config.RedisConfig{})
		assert.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("connected", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(ctx, logger, &config.RedisConfig{URL: "redis://" + mr.Addr()})
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()

		assert.NoError(t, client.Set(ctx, "k", "v", 0).Err())
		mr.CheckGet(t, "k", "v")
	})

	t.Run("invalid url", func(t *testing.T) {
		client, err := NewRedisClient(ctx, logger, &config.RedisConfig{URL: "not-a-url://"})
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}
