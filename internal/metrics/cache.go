package metrics

import (
	"context"
	"time"

	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/models"
)

const connectionCountsKey = "connections:by_provider"

// connectionCounter defines the store operation needed by CacheWrapper.
type connectionCounter interface {
	CountConnectionsByProvider(ctx context.Context) (map[models.Provider]int64, error)
}

// CacheWrapper provides a read-through cache for gauge data.
// In multi-instance deployments a shared cache keeps every replica from
// running the same count query on each tick.
type CacheWrapper struct {
	store connectionCounter
	cache core.Cache[map[models.Provider]int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(
	store connectionCounter,
	cache core.Cache[map[models.Provider]int64],
) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetConnectionCounts returns connection counts per provider using the
// cache-aside pattern.
func (m *CacheWrapper) GetConnectionCounts(
	ctx context.Context,
	ttl time.Duration,
) (map[models.Provider]int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		connectionCountsKey,
		ttl,
		func(ctx context.Context, _ string) (map[models.Provider]int64, error) {
			return m.store.CountConnectionsByProvider(ctx)
		},
	)
}

// UpdateConnectionGauges refreshes the per-provider connection gauge.
func UpdateConnectionGauges(
	ctx context.Context,
	wrapper *CacheWrapper,
	m core.Recorder,
	ttl time.Duration,
) error {
	counts, err := wrapper.GetConnectionCounts(ctx, ttl)
	if err != nil {
		m.RecordDatabaseQueryError("count_connections")
		return err
	}
	for _, p := range models.AllProviders {
		m.SetConnectionsCount(p.String(), counts[p])
	}
	return nil
}
