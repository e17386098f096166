package gormtool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const CacheTTL = 5 * time.Minute

type cacheCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// CacheStats is reported by GetMetrics.
type CacheStats struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Errors  int64 `json:"errors"`
}

// GenerateCacheKey is "<Go type>:<id>", e.g. "*models.Customer:7".
func (t *CRUDTool) GenerateCacheKey(model interface{}, id interface{}) string {
	return fmt.Sprintf("%T:%v", model, id)
}

// GetFromCache decodes the value under key into result and reports whether
// it was found. Without a Redis client it always misses.
func (t *CRUDTool) GetFromCache(ctx context.Context, key string, result interface{}) bool {
	if t.RedisClient == nil {
		return false
	}

	data, err := t.RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			t.counters.errors.Add(1)
			t.Logger.Warn(ctx, "cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		t.counters.misses.Add(1)
		return false
	}

	if err := json.Unmarshal(data, result); err != nil {
		t.counters.errors.Add(1)
		t.counters.misses.Add(1)
		return false
	}

	t.counters.hits.Add(1)
	return true
}

// SetToCache stores data under key as JSON for CacheTTL.
func (t *CRUDTool) SetToCache(ctx context.Context, key string, data interface{}) error {
	if t.RedisClient == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if err := t.RedisClient.Set(ctx, key, jsonData, CacheTTL).Err(); err != nil {
		t.counters.errors.Add(1)
		return err
	}
	return nil
}

// DeleteFromCache removes keys. Failures are counted and logged as well as returned.
func (t *CRUDTool) DeleteFromCache(ctx context.Context, keys ...string) error {
	if t.RedisClient == nil || len(keys) == 0 {
		return nil
	}

	if err := t.RedisClient.Del(ctx, keys...).Err(); err != nil {
		t.counters.errors.Add(1)
		t.Logger.Warn(ctx, "cache invalidation failed", map[string]interface{}{"keys": keys, "error": err.Error()})
		return err
	}
	return nil
}

// Invalidate drops the cached copy of model with the given id.
func (t *CRUDTool) Invalidate(ctx context.Context, model interface{}, id interface{}) {
	_ = t.DeleteFromCache(ctx, t.GenerateCacheKey(model, id))
}

// CacheStats returns the hit, miss and error counters since start.
func (t *CRUDTool) CacheStats() CacheStats {
	return CacheStats{
		Enabled: t.RedisClient != nil,
		Hits:    t.counters.hits.Load(),
		Misses:  t.counters.misses.Load(),
		Errors:  t.counters.errors.Load(),
	}
}

// getRedisStats returns the INFO output as a flat map.
func (t *CRUDTool) getRedisStats(ctx context.Context) interface{} {
	if t.RedisClient == nil {
		return "redis not configured"
	}

	info, err := t.RedisClient.Info(ctx).Result()
	if err != nil {
		return "redis info unavailable: " + err.Error()
	}

	redisStats := make(map[string]string)
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			redisStats[parts[0]] = parts[1]
		}
	}
	return redisStats
}
