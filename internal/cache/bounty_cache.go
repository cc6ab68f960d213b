package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/bounty-service/internal/domain"
)

const openBountiesKey = "bounties:open"

// BountyCache is a read-through cache for the open-bounty listing. All
// methods tolerate a nil receiver and cache misses; the store stays the
// source of truth.
type BountyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewBountyCache builds the cache. A nil client disables it.
func NewBountyCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *BountyCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &BountyCache{client: client, ttl: ttl, logger: logger}
}

// GetOpen returns the cached listing and whether it was present.
func (c *BountyCache) GetOpen(ctx context.Context) ([]domain.Bounty, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, openBountiesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("bounty cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var bounties []domain.Bounty
	if err := json.Unmarshal(raw, &bounties); err != nil {
		c.logger.Warn("bounty cache payload corrupt; dropping", zap.Error(err))
		_ = c.client.Del(ctx, openBountiesKey).Err()
		return nil, false
	}
	return bounties, true
}

// SetOpen stores the listing for the configured TTL.
func (c *BountyCache) SetOpen(ctx context.Context, bounties []domain.Bounty) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(bounties)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, openBountiesKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("bounty cache write failed", zap.Error(err))
	}
}

// InvalidateOpen drops the listing after a mutation.
func (c *BountyCache) InvalidateOpen(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, openBountiesKey).Err(); err != nil {
		c.logger.Warn("bounty cache invalidation failed", zap.Error(err))
	}
}
