package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrLockNotHeld is returned when releasing a lock owned by someone else.
var ErrLockNotHeld = errors.New("lock release failed: not the lock owner")

// Locker is a short-lived mutual exclusion keyed by string.
type Locker interface {
	Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLocker implements Locker with SET NX and a compare-and-delete script.
type RedisLocker struct {
	client  *redis.Client
	release *redis.Script
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, release: redis.NewScript(releaseLockScript)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, value, ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key, value string) error {
	result, err := l.release.Run(ctx, l.client, []string{key}, value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// MemoryLocker implements Locker on top of a MemoryCache.
type MemoryLocker struct {
	store *MemoryCache
}

func NewMemoryLocker(store *MemoryCache) *MemoryLocker {
	return &MemoryLocker{store: store}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return l.store.SetNX(ctx, key, value, ttl), nil
}

func (l *MemoryLocker) Release(ctx context.Context, key, value string) error {
	if !l.store.CompareAndDelete(ctx, key, value) {
		return ErrLockNotHeld
	}
	return nil
}
