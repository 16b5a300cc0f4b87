// Package cache memoizes analyses on (normalized_fen, depth, multi_pv),
// write-once/read-many, LRU-bounded by entry count (spec §4.4). Grounded on
// the teacher's go-redis usage in internal/queue's original producer/
// consumer (same client, repurposed from a stream to a plain key-value
// store with an auxiliary sorted set for LRU eviction).
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"boardsense.dev/sentinel/core/engine"
	"boardsense.dev/sentinel/internal/model"
)

const lruIndexKey = "sentinel:analysis:lru"

// Cache is a Redis-backed analysis memoization layer.
type Cache struct {
	rdb     *redis.Client
	maxSize int64
}

// New wraps an existing Redis client. maxSize bounds the number of cached
// entries; when exceeded, the least-recently-used entries are evicted.
func New(rdb *redis.Client, maxSize int64) *Cache {
	return &Cache{rdb: rdb, maxSize: maxSize}
}

// Key builds the cache key for a (normalized FEN, depth, multi-PV) triple.
func Key(fen string, depth, multiPV int) string {
	return fmt.Sprintf("sentinel:analysis:%s:%d:%d", model.NormalizeFEN(fen), depth, multiPV)
}

// Get returns a cached analysis, or ok=false on a miss. A hit refreshes the
// entry's LRU recency.
func (c *Cache) Get(ctx context.Context, fen string, depth, multiPV int) (engine.Analysis, bool, error) {
	key := Key(fen, depth, multiPV)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return engine.Analysis{}, false, nil
	}
	if err != nil {
		return engine.Analysis{}, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var a engine.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return engine.Analysis{}, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	c.touch(ctx, key)
	return a, true, nil
}

// Put stores an analysis and evicts the least-recently-used entries if the
// cache is over maxSize. Write-once per spec §4.4: callers should Get
// before computing, and only Put on a miss.
func (c *Cache) Put(ctx context.Context, fen string, depth, multiPV int, a engine.Analysis) error {
	key := Key(fen, depth, multiPV)
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	c.touch(ctx, key)
	return c.evictIfOversize(ctx)
}

func (c *Cache) touch(ctx context.Context, key string) {
	_ = c.rdb.ZAdd(ctx, lruIndexKey, redis.Z{Score: float64(clockNow().Unix()), Member: key}).Err()
}

func (c *Cache) evictIfOversize(ctx context.Context) error {
	if c.maxSize <= 0 {
		return nil
	}
	count, err := c.rdb.ZCard(ctx, lruIndexKey).Result()
	if err != nil {
		return fmt.Errorf("cache: zcard: %w", err)
	}
	if count <= c.maxSize {
		return nil
	}
	excess := count - c.maxSize
	victims, err := c.rdb.ZRange(ctx, lruIndexKey, 0, excess-1).Result()
	if err != nil {
		return fmt.Errorf("cache: zrange: %w", err)
	}
	if len(victims) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, victims...)
	pipe.ZRem(ctx, lruIndexKey, toAny(victims)...)
	_, err = pipe.Exec(ctx)
	return err
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

