package cache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitpress/gitpress/model"
)

func unsetRedisEnv(t *testing.T) {
	for _, key := range []string{"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWD"} {
		prev, had := os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
	}
}

func TestRedisBackendFromEnvUnset(t *testing.T) {
	unsetRedisEnv(t)

	backend := NewRedisBackendFromEnv()
	// Must be a nil interface value, so the PostCache nil guard fires. A
	// typed-nil *RedisBackend here would make IsAvailable dereference a nil
	// receiver.
	assert.True(t, backend == nil)
}

func TestUnconfiguredBackendDegradesWithoutPanic(t *testing.T) {
	unsetRedisEnv(t)
	ctx := context.Background()

	// Build the cache exactly the way the server wiring does when no
	// REDIS_HOST is configured.
	c := NewPostCache(NewRedisBackendFromEnv(), 0)

	assert.False(t, c.IsAvailable(ctx))

	_, outcome := c.GetPost(ctx, "100")
	assert.Equal(t, Unavailable, outcome)
	_, outcome = c.GetAllPosts(ctx)
	assert.Equal(t, Unavailable, outcome)

	// every operation is a no-op, none may panic
	c.SetPost(ctx, makePost("100", "hello"))
	c.SetAllPosts(ctx, []model.Post{makePost("100", "hello")})
	c.InvalidatePost(ctx, "100")
	c.InvalidateAllPosts(ctx)
}
