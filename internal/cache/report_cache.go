package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockpulse/doi-backend/internal/config"
)

const (
	reportKeyPrefix = "report:"
	scanBatchSize   = 100
)

// ReportCache caches rendered report payloads (already-marshaled JSON views)
// keyed by batch id and query parameters. The pipeline itself stays stateless;
// a miss simply recomputes.
type ReportCache interface {
	Get(ctx context.Context, batchID string, params []string, out interface{}) (bool, error)
	Set(ctx context.Context, batchID string, params []string, payload interface{}) error
	InvalidateBatch(ctx context.Context, batchID string) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache builds a redis-backed cache, or a no-op one when caching is
// disabled in config.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

// NewNoopReportCache returns a cache that stores nothing.
func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, batchID string, params []string, out interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(batchID, params)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode cached report: %w", err)
	}

	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, batchID string, params []string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, buildReportKey(batchID, params), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisReportCache) InvalidateBatch(ctx context.Context, batchID string) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, reportKeyPrefix+batchID+":*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (c *noopReportCache) Get(ctx context.Context, batchID string, params []string, out interface{}) (bool, error) {
	return false, nil
}

func (c *noopReportCache) Set(ctx context.Context, batchID string, params []string, payload interface{}) error {
	return nil
}

func (c *noopReportCache) InvalidateBatch(ctx context.Context, batchID string) error {
	return nil
}

func buildReportKey(batchID string, params []string) string {
	sum := sha1.Sum([]byte(strings.Join(params, "|")))
	return reportKeyPrefix + batchID + ":" + hex.EncodeToString(sum[:])
}
