// Package cache stores short-lived fraud statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/txshield/txshield/internal/domain/port"
)

const keyPrefix = "txshield:stats:"

// Generation counters live under genKey(scope) and never expire. Entries live
// under entryKey(scope, gen) with the caller's TTL, so superseded generations
// age out on their own.
func genKey(scope string) string { return keyPrefix + "gen:" + scope }

func entryKey(scope string, gen int64) string {
	return keyPrefix + scope + ":" + strconv.FormatInt(gen, 10)
}

var _ port.StatsCache = (*RedisStatsCache)(nil)

// RedisStatsCache implements port.StatsCache. It accepts a single-node or
// cluster client.
type RedisStatsCache struct {
	client redis.UniversalClient
}

// NewRedisStatsCache creates a RedisStatsCache.
func NewRedisStatsCache(client redis.UniversalClient) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

// Get reads the scope's generation, then the entry stored for it.
func (c *RedisStatsCache) Get(ctx context.Context, scope string) (port.FraudStats, int64, bool, error) {
	gen, err := c.client.Get(ctx, genKey(scope)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return port.FraudStats{}, 0, false, fmt.Errorf("redis get generation %s: %w", scope, err)
	}

	raw, err := c.client.Get(ctx, entryKey(scope, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return port.FraudStats{}, gen, false, nil
	}
	if err != nil {
		return port.FraudStats{}, 0, false, fmt.Errorf("redis get %s: %w", scope, err)
	}

	var stats port.FraudStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return port.FraudStats{}, 0, false, fmt.Errorf("decode cached stats %s: %w", scope, err)
	}
	return stats, gen, true, nil
}

// Set stores stats for scope under gen with the given TTL.
func (c *RedisStatsCache) Set(ctx context.Context, scope string, gen int64, stats port.FraudStats, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(scope, gen), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", scope, err)
	}
	return nil
}

// Invalidate advances the generation of every scope.
func (c *RedisStatsCache) Invalidate(ctx context.Context, scopes ...string) error {
	// One INCR per key so cluster clients never send a cross-slot command.
	var errs []error
	for _, s := range scopes {
		if err := c.client.Incr(ctx, genKey(s)).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis incr %s: %w", genKey(s), err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks connectivity.
func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
