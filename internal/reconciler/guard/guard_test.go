package guard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalGuard_ExclusiveAndReleasable(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "ref_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, g.InFlight("ref_1"))

	_, ok, err = g.TryAcquire(ctx, "ref_1")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must not wait or succeed")

	other, ok, _ := g.TryAcquire(ctx, "ref_2")
	require.True(t, ok)
	other()

	release()
	release()
	assert.False(t, g.InFlight("ref_1"))

	_, ok, _ = g.TryAcquire(ctx, "ref_1")
	assert.True(t, ok)
}

func TestLocalGuard_ConcurrentAcquireHasSingleWinner(t *testing.T) {
	g := NewLocalGuard()
	var winners atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := g.TryAcquire(context.Background(), "ref_race"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(discardLogger(), client, "inflight:", ttl), mr
}

func TestRedisGuard_AcquireRelease(t *testing.T) {
	g, mr := newRedisGuard(t, time.Minute)
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "ref_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("inflight:ref_1"))
	assert.Equal(t, time.Minute, mr.TTL("inflight:ref_1"))

	_, ok, err = g.TryAcquire(ctx, "ref_1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("inflight:ref_1"))
}

func TestRedisGuard_ReleaseDoesNotDropForeignLock(t *testing.T) {
	g, mr := newRedisGuard(t, time.Second)
	ctx := context.Background()

	release, ok, err := g.TryAcquire(ctx, "ref_1")
	require.NoError(t, err)
	require.True(t, ok)

	// Lock expires and another holder takes it
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("inflight:ref_1", "someone-else"))

	release()
	got, err := mr.Get("inflight:ref_1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestChainGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("local only", func(t *testing.T) {
		local := NewLocalGuard()
		g := NewChainGuard(discardLogger(), local, nil)

		release, ok, err := g.TryAcquire(ctx, "ref_1")
		require.NoError(t, err)
		require.True(t, ok)
		_, ok, _ = g.TryAcquire(ctx, "ref_1")
		assert.False(t, ok)
		release()
		assert.False(t, local.InFlight("ref_1"))
	})

	t.Run("remote contention frees local slot", func(t *testing.T) {
		remote, _ := newRedisGuard(t, time.Minute)
		_, ok, err := remote.TryAcquire(ctx, "ref_1")
		require.NoError(t, err)
		require.True(t, ok)

		local := NewLocalGuard()
		g := NewChainGuard(discardLogger(), local, remote)
		_, ok, err = g.TryAcquire(ctx, "ref_1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, local.InFlight("ref_1"))
	})

	t.Run("remote failure falls back to local", func(t *testing.T) {
		remote, mr := newRedisGuard(t, time.Minute)
		mr.Close()

		local := NewLocalGuard()
		g := NewChainGuard(discardLogger(), local, remote)
		release, ok, err := g.TryAcquire(ctx, "ref_1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, local.InFlight("ref_1"))
		release()
		assert.False(t, local.InFlight("ref_1"))
	})

	t.Run("both released", func(t *testing.T) {
		remote, mr := newRedisGuard(t, time.Minute)
		local := NewLocalGuard()
		g := NewChainGuard(discardLogger(), local, remote)

		release, ok, err := g.TryAcquire(ctx, "ref_2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, mr.Exists("inflight:ref_2"))
		release()
		assert.False(t, mr.Exists("inflight:ref_2"))
		assert.False(t, local.InFlight("ref_2"))
	})
}
