package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ ResultCache = (*MemoryResultCache)(nil)

// MemoryResultCache keeps results in process memory. It suits a single API
// process and tests; the worker and API only share entries through redis.
type MemoryResultCache struct {
	cache *gocache.Cache
}

func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryResultCache{cache: gocache.New(ttl, 10*time.Minute)}
}

func (c *MemoryResultCache) Get(_ context.Context, requestID string) (*types.TripPlanData, bool, error) {
	v, found := c.cache.Get(requestID)
	if !found {
		return nil, false, nil
	}
	data, err := decode(v.([]byte))
	if err != nil {
		c.cache.Delete(requestID)
		return nil, false, nil
	}
	return data, true, nil
}

func (c *MemoryResultCache) Set(_ context.Context, requestID string, data *types.TripPlanData) error {
	b, err := encode(data)
	if err != nil {
		return err
	}
	c.cache.Set(requestID, b, gocache.DefaultExpiration)
	return nil
}

// Flush drops every entry.
func (c *MemoryResultCache) Flush() {
	c.cache.Flush()
}
