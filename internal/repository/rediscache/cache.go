// Package rediscache caches reference face encodings in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

const keyPrefix = "face:enc:"

// KV is the subset of redis.Cmdable used by the cache.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cache stores encodings as JSON arrays keyed by image ref.
type Cache struct {
	kv KV
}

// New wraps a redis client.
func New(kv KV) *Cache { return &Cache{kv: kv} }

// Get returns the cached encoding for ref. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, ref string) (model.FaceEncoding, bool, error) {
	raw, err := c.kv.Get(ctx, keyPrefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var enc model.FaceEncoding
	if err := json.Unmarshal(raw, &enc); err != nil {
		return nil, false, fmt.Errorf("redis decode: %w", err)
	}
	return enc, true, nil
}

// Set stores enc under ref for ttl. Zero ttl keeps the key forever.
func (c *Cache) Set(ctx context.Context, ref string, enc model.FaceEncoding, ttl time.Duration) error {
	raw, err := json.Marshal(enc)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, keyPrefix+ref, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
