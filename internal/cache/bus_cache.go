package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collegetour/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const DefaultBusTTL = 30 * time.Second

// BusCache keeps the per-college bus list that the seat picker polls. MySQL
// stays the source of truth; every seat mutation deletes the college key.
// A nil *BusCache or nil client is a valid, disabled cache.
type BusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBusCache(rdb *redis.Client, ttl time.Duration) *BusCache {
	if ttl <= 0 {
		ttl = DefaultBusTTL
	}
	return &BusCache{rdb: rdb, ttl: ttl}
}

func BusKey(collegeID int64) string {
	return fmt.Sprintf("buses:college:%d", collegeID)
}

// Enabled reports whether a Redis client is configured.
func (c *BusCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get reports ok=false on a miss or when the cache is disabled.
func (c *BusCache) Get(ctx context.Context, collegeID int64) ([]models.Bus, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, BusKey(collegeID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bus cache get: %w", err)
	}
	var buses []models.Bus
	if err := json.Unmarshal([]byte(raw), &buses); err != nil {
		return nil, false, fmt.Errorf("bus cache decode: %w", err)
	}
	return buses, true, nil
}

func (c *BusCache) Set(ctx context.Context, collegeID int64, buses []models.Bus) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(buses)
	if err != nil {
		return fmt.Errorf("bus cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, BusKey(collegeID), string(b), c.ttl).Err(); err != nil {
		return fmt.Errorf("bus cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached list of each college.
func (c *BusCache) Invalidate(ctx context.Context, collegeIDs ...int64) error {
	if !c.Enabled() || len(collegeIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(collegeIDs))
	for _, id := range collegeIDs {
		keys = append(keys, BusKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("bus cache invalidate: %w", err)
	}
	return nil
}

// Ping is used by the health check.
func (c *BusCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
