package cache

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	c.Set(ctx, "courses:{}", []byte(`{"a":1}`), time.Minute)

	_, ok := c.Get(ctx, "courses:{}")
	assert.False(t, ok)

	var v map[string]int
	assert.False(t, GetJSON(ctx, c, "courses:{}", &v))
}

// An unreachable redis must degrade to misses and no-ops, never errors or panics.
func TestRedisUnreachableDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedis(client, log.New(io.Discard, "", 0))
	ctx := context.Background()

	_, ok := c.Get(ctx, "courses:x")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		c.Set(ctx, "courses:x", []byte("1"), time.Minute)
		c.Delete(ctx, "courses:x")
		c.DeletePattern(ctx, "courses:*")
	})
}
