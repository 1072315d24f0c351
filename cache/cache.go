package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store is the key-value surface the services depend on.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context, pattern string) error
}

// Cache is the Redis-backed Store.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) (*Cache, error) {
	if client == nil {
		return nil, errors.New("Redis client is not initialized")
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) DeleteAll(ctx context.Context, pattern string) error {
	// SCAN instead of KEYS so large keyspaces do not block Redis
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get returns "" with a nil error when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *Cache) DeleteBatch(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// GetJSON decodes the cached value at key into dest; found is false on a miss.
func GetJSON(ctx context.Context, store Store, key string, dest interface{}) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil || raw == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value at key as JSON.
func SetJSON(ctx context.Context, store Store, key string, value interface{}, expiration time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, payload, expiration)
}
