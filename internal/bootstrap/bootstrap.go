package bootstrap

import (
	"context"
	"net/http"

	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/store"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	MetricsCache         core.Cache[map[models.Provider]int64]
	StateCache           core.Cache[bool]
	RateLimitRedisClient *redis.Client
	ProviderHTTPClient   *http.Client
	Cipher               *token.SafeCipher

	// Services
	SyncRunner        *services.SyncRunner
	ConnectionService *services.ConnectionService
	CallbackService   *services.CallbackService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the server, blocking until shutdown.
func Run(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg, nil)
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown(ctx)
	return nil
}

// RunSyncOnce runs a single sync batch and exits. It backs the sync
// subcommand for external schedulers.
func RunSyncOnce(ctx context.Context, cfg *config.Config) (*services.BatchSummary, error) {
	setupLogger(cfg, nil)
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	db, err := initializeDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	httpClient, err := createProviderHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	cipher, err := initializeCipher(cfg)
	if err != nil {
		return nil, err
	}

	runner := initializeSyncRunner(cfg, db, httpClient, cipher, metrics.NewNoopMetrics())
	return runner.RunBatch(ctx)
}

// initializeInfrastructure sets up database, metrics, caches and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	cfg := app.Config
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, cfg)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(cfg)
	app.MetricsCache, err = initializeMetricsCache(ctx, cfg)
	if err != nil {
		return err
	}

	// OAuth state replay cache
	app.StateCache, err = initializeStateCache(ctx, cfg)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, cfg)
	if err != nil {
		return err
	}

	// Provider HTTP client and token cipher
	app.ProviderHTTPClient, err = createProviderHTTPClient(cfg)
	if err != nil {
		return err
	}
	app.Cipher, err = initializeCipher(cfg)
	return err
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() error {
	clients, err := initializeOAuthClients(app.Config, app.ProviderHTTPClient)
	if err != nil {
		return err
	}

	app.SyncRunner = initializeSyncRunner(
		app.Config,
		app.DB,
		app.ProviderHTTPClient,
		app.Cipher,
		app.MetricsRecorder,
	)
	app.ConnectionService, app.CallbackService = initializeOAuthServices(
		app.Config,
		app.DB,
		clients,
		app.ProviderHTTPClient,
		app.Cipher,
		app.StateCache,
		app.MetricsRecorder,
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.ConnectionService,
		app.CallbackService,
		app.SyncRunner,
		app.DB,
		app.DB,
	)

	limiters, err := setupRateLimiting(app.Config, app.RateLimitRedisClient)
	if err != nil {
		return err
	}

	app.Router = setupRouter(app.Config, app.HandlerSet, app.MetricsRecorder, limiters)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown(ctx context.Context) {
	cfg := app.Config
	m := graceful.NewManager(graceful.WithContext(ctx))

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, cfg.ServerShutdownTimeout)
	addPeriodicSyncJob(m, cfg, app.SyncRunner)
	addMetricsGaugeUpdateJob(m, cfg, app.DB, app.MetricsRecorder, app.MetricsCache)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient, cfg.RedisCloseTimeout)
	addCacheShutdownJob(m, "state", cacheCloser(app.StateCache), cfg.CacheCloseTimeout)
	addCacheShutdownJob(m, "metrics", cacheCloser(app.MetricsCache), cfg.CacheCloseTimeout)

	// Wait for graceful shutdown
	<-m.Done()

	// Jobs may still query the database until they return.
	closeDatabase(app.DB, cfg.DBCloseTimeout)
}

// closeInfrastructure releases whatever was opened before a startup failure.
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.StateCache != nil {
		_ = app.StateCache.Close()
	}
	if app.MetricsCache != nil {
		_ = app.MetricsCache.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// cacheCloser returns c.Close, or nil for a nil cache.
func cacheCloser[T any](c core.Cache[T]) func() error {
	if c == nil {
		return nil
	}
	return c.Close
}
