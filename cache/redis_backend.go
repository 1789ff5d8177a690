package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBackend adapts a redis client to the Backend contract.
type RedisBackend struct {
	inner *redis.Client
}

// NewRedisBackendFromEnv builds a backend from REDIS_HOST, REDIS_PORT and
// REDIS_PASSWD. Returns nil if REDIS_HOST is unset, which callers treat as
// "cache disabled". The return type is the Backend interface so that the
// unconfigured case is a nil interface value, not a typed-nil pointer that
// would slip past PostCache's nil guard.
func NewRedisBackendFromEnv() Backend {
	if os.Getenv("REDIS_HOST") == "" {
		return nil
	}
	return &RedisBackend{
		inner: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})}
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{inner: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.inner.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.inner.Set(ctx, key, value, expiration).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.inner.Del(ctx, key).Err()
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx).Err()
}
