package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A sync batch is answered only once every connection is done.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("failed to start server")
			}
		}()
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}

		log.Info().Msg("server exited")
		return nil
	})
}

// errCloseTimeout is returned when a resource does not close in time.
var errCloseTimeout = errors.New("close timed out")

// closeWithTimeout runs closeFn and gives up waiting after timeout.
func closeWithTimeout(timeout time.Duration, closeFn func() error) error {
	done := make(chan error, 1)
	go func() { done <- closeFn() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return errCloseTimeout
	}
}

// closeDatabase closes the connection pool once every job has stopped.
func closeDatabase(db *store.Store, timeout time.Duration) {
	if err := closeWithTimeout(timeout, db.Close); err != nil {
		log.Error().Err(err).Msg("error closing database")
		return
	}
	log.Info().Msg("database closed")
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(
	m *graceful.Manager,
	redisClient *redis.Client,
	timeout time.Duration,
) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Info().Msg("closing Redis connection...")
		if err := closeWithTimeout(timeout, redisClient.Close); err != nil {
			log.Error().Err(err).Msg("error closing Redis client")
			return err
		}
		log.Info().Msg("Redis connection closed")
		return nil
	})
}

// addCacheShutdownJob closes a cache on shutdown
func addCacheShutdownJob(
	m *graceful.Manager,
	name string,
	closeFn func() error,
	timeout time.Duration,
) {
	if closeFn == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closeWithTimeout(timeout, closeFn); err != nil {
			log.Error().Err(err).Str("cache", name).Msg("error closing cache")
		} else {
			log.Info().Str("cache", name).Msg("cache closed")
		}
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	metricsCache core.Cache[map[models.Provider]int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		wrapper := metrics.NewCacheWrapper(db, metricsCache)
		update := func() {
			if err := metrics.UpdateConnectionGauges(
				ctx, wrapper, recorder, cfg.MetricsCacheTTL,
			); err != nil {
				gaugeErrorLogger.logIfNeeded("count_connections", err)
			}
		}

		// Update immediately on startup
		update()
		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addPeriodicSyncJob runs a sync batch every SyncInterval.
func addPeriodicSyncJob(m *graceful.Manager, cfg *config.Config, runner batchRunner) {
	if cfg.SyncInterval <= 0 {
		return
	}

	log.Info().Dur("interval", cfg.SyncInterval).Msg("periodic sync enabled")
	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runScheduledBatch(ctx, runner, cfg.SyncShutdownTimeout)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

type batchRunner interface {
	RunBatch(ctx context.Context) (*services.BatchSummary, error)
}

// runScheduledBatch runs one batch. Once ctx is done the batch keeps going
// for at most grace before its own context is cancelled.
func runScheduledBatch(ctx context.Context, runner batchRunner, grace time.Duration) {
	batchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	var timer *time.Timer
	var mu sync.Mutex
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		timer = time.AfterFunc(grace, cancel)
		mu.Unlock()
	})
	defer func() {
		stop()
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	summary, err := runner.RunBatch(batchCtx)
	switch {
	case errors.Is(err, services.ErrBatchInProgress):
		log.Info().Msg("scheduled sync skipped, a batch is already running")
	case err != nil:
		log.Error().Err(err).Msg("scheduled sync failed")
	default:
		log.Info().
			Int("total", summary.Total).
			Int("successful", summary.Successful).
			Int("failed", summary.Failed).
			Int("inserted", summary.ActivitiesInserted).
			Msg("scheduled sync finished")
	}
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger(window time.Duration) *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: window,
	}
}

// logIfNeeded logs an error only if rate limit allows. It reports whether
// the error was logged.
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]
	if exists && now.Sub(lastTime) < e.rateLimitWindow {
		return false
	}

	log.Error().
		Err(err).
		Str("operation", operation).
		Dur("suppress_for", e.rateLimitWindow).
		Msg("gauge query failed, further errors suppressed")
	e.lastErrorTimes[operation] = now
	return true
}

var gaugeErrorLogger = newErrorLogger(5 * time.Minute)
