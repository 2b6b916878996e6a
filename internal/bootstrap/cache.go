package bootstrap

import (
	"context"
	"fmt"

	"github.com/communitykit/activitysync/internal/cache"
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	metricsCachePrefix = "activitysync:metrics:"
	stateCachePrefix   = "activitysync:oauth:"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	m := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info().Msg("Prometheus metrics initialized")
	} else {
		log.Info().Msg("metrics disabled (using noop implementation)")
	}
	return m
}

// initializeMetricsCache returns the cache behind the connection gauges, or
// nil when the gauge job is off.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[map[models.Provider]int64], error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil //nolint:nilnil // cache not needed in this configuration
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.MetricsCacheType {
	case config.CacheTypeRedis:
		c, err := cache.NewRueidisCache[map[models.Provider]int64](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			metricsCachePrefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("metrics cache: redis")
		return c, nil
	default:
		log.Info().Msg("metrics cache: memory (single instance only)")
		return cache.NewMemoryCache[map[models.Provider]int64](), nil
	}
}

// initializeStateCache returns the cache that records consumed OAuth state
// nonces. A shared cache is required to reject replays across replicas.
func initializeStateCache(ctx context.Context, cfg *config.Config) (core.Cache[bool], error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.StateCacheType {
	case config.CacheTypeRedis:
		c, err := cache.NewRueidisCache[bool](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			stateCachePrefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis state cache: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("state cache: redis")
		return c, nil
	default:
		log.Info().Msg("state cache: memory (single instance only)")
		return cache.NewMemoryCache[bool](), nil
	}
}
