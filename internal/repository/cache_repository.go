package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRepository is a minimal key/value cache contract.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = redis.Nil

type redisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository wraps a redis client as a CacheRepository.
func NewRedisCacheRepository(client *redis.Client) CacheRepository {
	return &redisCacheRepository{client: client}
}

func (r *redisCacheRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCacheRepository) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisCacheRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
