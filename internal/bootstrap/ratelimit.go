package bootstrap

import (
	"fmt"

	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	sync    gin.HandlerFunc
	connect gin.HandlerFunc
}

// setupRateLimiting builds the per-endpoint limiters. Disabled limiting
// yields pass-through middlewares.
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		log.Info().Msg("rate limiting disabled")
		noOp := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{sync: noOp, connect: noOp}, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	if storeType == middleware.RateLimitStoreRedis {
		log.Info().Msg("rate limiting enabled (store: redis, shared across instances)")
	} else {
		log.Info().Msg("rate limiting enabled (store: memory, single instance only)")
	}

	create := func(requestsPerMinute int, name string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			Name:              name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s rate limiter: %w", name, err)
		}
		return limiter, nil
	}

	syncLimiter, err := create(cfg.SyncRateLimit, "sync")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	connectLimiter, err := create(cfg.ConnectRateLimit, "connect")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	return rateLimitMiddlewares{sync: syncLimiter, connect: connectLimiter}, nil
}
