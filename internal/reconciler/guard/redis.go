package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisGuard holds references across replicas with SET NX PX and a token-checked release.
// The TTL bounds how long a crashed holder can block a reference.
type RedisGuard struct {
	client *redis.Client
	script *redis.Script
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisGuard(logger *slog.Logger, client *redis.Client, prefix string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (g *RedisGuard) key(reference string) string {
	return g.prefix + reference
}

func (g *RedisGuard) TryAcquire(ctx context.Context, reference string) (Release, bool, error) {
	key := g.key(reference)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.script.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
				g.logger.Warn("Failed to release in-flight lock", "reference", reference, "error", err)
			}
		})
	}, true, nil
}
