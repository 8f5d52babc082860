package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reset_otp:"

// RedisStore is a CacheStore backed by Redis, for deployments running more
// than one instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the code under its key with the given TTL.
func (s *RedisStore) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+key, code, ttl).Err()
}

// Get returns the live code for key; Redis handles expiry.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Delete removes the entry for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}
