package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

type Redis struct {
	client *redis.Client
	log    *log.Logger
}

var _ Cache = (*Redis)(nil)

func NewRedis(client *redis.Client, logger *log.Logger) *Redis {
	return &Redis{client: client, log: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.log.Printf("cache get %s: %v", key, err)
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Printf("cache set %s: %v", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Printf("cache delete %s: %v", key, err)
	}
}

// DeletePattern walks the keyspace with SCAN instead of KEYS so a large cache does not
// block the server.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			r.del(ctx, pattern, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Printf("cache scan %s: %v", pattern, err)
	}
	if len(batch) > 0 {
		r.del(ctx, pattern, batch)
	}
}

func (r *Redis) del(ctx context.Context, pattern string, keys []string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Printf("cache delete pattern %s: %v", pattern, err)
	}
}
