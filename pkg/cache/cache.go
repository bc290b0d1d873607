// Package cache is the best-effort key-value side channel used by read paths.
// Implementations never return errors: a failure is logged and behaves as a miss.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	// Get returns the raw value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// DeletePattern removes every key matching a glob such as "courses:*".
	DeletePattern(ctx context.Context, pattern string)
}

type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, string)                     {}
func (Noop) DeletePattern(context.Context, string)              {}

// GetJSON decodes a cached value into v. Undecodable entries count as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v interface{}) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, data, ttl)
}
