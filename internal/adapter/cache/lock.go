// internal/adapter/cache/lock.go

package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if this process still holds it,
// so a holder whose TTL expired cannot release a successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// RedisLocker is a distributed mutual-exclusion lock built on atomic
// SET NX EX. TTL bounds the hold so a crashed holder recovers on its
// own. If the backend is unavailable the locker degrades to
// always-allow: availability wins over strict exclusion.
type RedisLocker struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLocker builds a locker sharing the cache's backend
// connection. A disabled cache yields an always-allow locker.
func NewRedisLocker(c *RedisCache, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: c.client,
		logger: logger,
		tokens: make(map[string]string),
	}
}

func lockKey(name string) string {
	return keyPrefix + "lock:" + name
}

// Acquire attempts an atomic set-if-absent with expiry and reports
// whether the lock was obtained. Backend failures allow the operation.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) bool {
	if l.client == nil {
		return true
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		l.logger.Warn("lock acquire failed, allowing operation", "lock", name, "error", err)
		return true
	}
	if !ok {
		return false
	}

	l.mu.Lock()
	l.tokens[name] = token
	l.mu.Unlock()

	return true
}

// Release frees the lock if this process still holds it
func (l *RedisLocker) Release(ctx context.Context, name string) bool {
	if l.client == nil {
		return true
	}

	l.mu.Lock()
	token, held := l.tokens[name]
	delete(l.tokens, name)
	l.mu.Unlock()

	if !held {
		return false
	}

	res, err := l.client.Eval(ctx, releaseScript, []string{lockKey(name)}, token).Int()
	if err != nil {
		l.logger.Warn("lock release failed", "lock", name, "error", err)
		return false
	}

	return res == 1
}
