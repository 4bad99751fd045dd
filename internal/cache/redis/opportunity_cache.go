package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// latestKey holds the serialized snapshot of the last completed cycle.
const latestKey = "arbwatch:opportunities:latest"

// latestTTL expires a snapshot that stopped being refreshed, so external
// consumers never act on output from a dead monitor.
const latestTTL = 10 * time.Minute

// OpportunityCache implements domain.OpportunityCache on a single Redis
// string key. Exactly one value is kept; every cycle overwrites it.
type OpportunityCache struct {
	rdb *redis.Client
}

// NewOpportunityCache creates an OpportunityCache backed by the given Client.
func NewOpportunityCache(c *Client) *OpportunityCache {
	return &OpportunityCache{rdb: c.rdb}
}

// SetLatest replaces the stored snapshot.
func (oc *OpportunityCache) SetLatest(ctx context.Context, payload []byte) error {
	if err := oc.rdb.Set(ctx, latestKey, payload, latestTTL).Err(); err != nil {
		return fmt.Errorf("redis: set latest snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the stored snapshot, or domain.ErrNotFound when no
// cycle has published yet or the value expired.
func (oc *OpportunityCache) GetLatest(ctx context.Context) ([]byte, error) {
	payload, err := oc.rdb.Get(ctx, latestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get latest snapshot: %w", err)
	}
	return payload, nil
}

// Compile-time interface check.
var _ domain.OpportunityCache = (*OpportunityCache)(nil)
