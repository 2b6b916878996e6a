package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/communitykit/activitysync/internal/cache"
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/handlers"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/mocks"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSyncKey = "sync-key"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:       config.EnvironmentDevelopment,
		ServerAddr:        ":0",
		BaseURL:           "http://localhost:8080",
		DatabaseDriver:    "sqlite",
		DatabaseDSN:       filepath.Join(t.TempDir(), "activitysync.db"),
		SessionName:       "app_session",
		SessionSecret:     "session-secret",
		OAuthStateSecret:  "state-secret",
		SyncAPIKey:        testSyncKey,
		SyncMaxResults:    50,
		SyncLookbackHours: 24,
		SyncCallTimeout:   time.Second,
		OAuthTimeout:      5 * time.Second,
		RateLimitStore:    config.RateLimitStoreMemory,
		MetricsCacheType:  config.CacheTypeMemory,
		StateCacheType:    config.CacheTypeMemory,
		LogLevel:          "error",
		LogFormat:         config.LogFormatJSON,
		DBInitTimeout:     5 * time.Second,
		CacheInitTimeout:  time.Second,
		RedisConnTimeout:  time.Second,
	}
}

func restoreLogger(t *testing.T) {
	t.Helper()
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restoreLogger(t)
			cfg := &config.Config{LogLevel: tt.level, LogFormat: config.LogFormatJSON}

			got := setupLogger(cfg, &bytes.Buffer{})

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestSetupLogger_JSONOutput(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	setupLogger(&config.Config{LogLevel: "info", LogFormat: config.LogFormatJSON}, &buf)

	log.Info().Str("provider", "github").Msg("hello")

	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.Contains(t, buf.String(), `"provider":"github"`)
}

func TestValidateAllConfiguration(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, validateAllConfiguration(cfg))

	cfg.DatabaseDriver = "mysql"
	err := validateAllConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		m := initializeMetrics(&config.Config{MetricsEnabled: enabled})
		require.NotNil(t, m)
	}
}

func TestInitializeMetricsCache(t *testing.T) {
	ctx := context.Background()

	c, err := initializeMetricsCache(ctx, &config.Config{
		MetricsEnabled:            false,
		MetricsGaugeUpdateEnabled: true,
	})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = initializeMetricsCache(ctx, &config.Config{
		MetricsEnabled:            true,
		MetricsGaugeUpdateEnabled: false,
	})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = initializeMetricsCache(ctx, &config.Config{
		MetricsEnabled:            true,
		MetricsGaugeUpdateEnabled: true,
		MetricsCacheType:          config.CacheTypeMemory,
		CacheInitTimeout:          time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NoError(t, c.Close())
}

func TestInitializeStateCache_Memory(t *testing.T) {
	c, err := initializeStateCache(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, c)

	ok, err := c.SetIfAbsent(context.Background(), "nonce", true, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Close())
}

func TestInitializeRateLimitRedisClient_NotNeeded(t *testing.T) {
	cfg := testConfig(t)

	cfg.EnableRateLimit = false
	client, err := initializeRateLimitRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client)

	cfg.EnableRateLimit = true
	cfg.RateLimitStore = config.RateLimitStoreMemory
	client, err = initializeRateLimitRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestSetupRateLimiting(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(h gin.HandlerFunc, n int) []int {
		r := gin.New()
		r.GET("/", h, func(c *gin.Context) { c.Status(http.StatusOK) })
		codes := make([]int, 0, n)
		for range n {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, w.Code)
		}
		return codes
	}

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EnableRateLimit = false
		cfg.SyncRateLimit = 1

		limiters, err := setupRateLimiting(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{200, 200, 200}, serve(limiters.sync, 3))
	})

	t.Run("memory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EnableRateLimit = true
		cfg.SyncRateLimit = 1
		cfg.ConnectRateLimit = 2
		cfg.RateLimitCleanupInterval = time.Minute

		limiters, err := setupRateLimiting(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{200, 429}, serve(limiters.sync, 2))
		assert.Equal(t, []int{200, 200, 429}, serve(limiters.connect, 3))
	})

	t.Run("redis without client", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EnableRateLimit = true
		cfg.RateLimitStore = config.RateLimitStoreRedis
		cfg.SyncRateLimit = 1

		_, err := setupRateLimiting(cfg, nil)
		require.Error(t, err)
	})
}

func TestProviderCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHub = config.OAuthProvider{ClientID: "gh-id", ClientSecret: "gh-secret"}
	cfg.Twitter = config.OAuthProvider{ClientID: "tw-id"}

	creds := providerCredentials(cfg)

	assert.Equal(t, map[models.Provider]token.ClientCredentials{
		models.ProviderGitHub: {ClientID: "gh-id", ClientSecret: "gh-secret"},
	}, creds)
}

func TestInitializeOAuthClients(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHub = config.OAuthProvider{
		ClientID:     "gh-id",
		ClientSecret: "gh-secret",
		RedirectURL:  "http://localhost:8080/api/auth/callback/github",
	}
	cfg.Discord = config.OAuthProvider{ClientID: "dc-id", ClientSecret: "dc-secret"}
	cfg.LinkedIn = config.OAuthProvider{ClientSecret: "li-secret"}

	clients, err := initializeOAuthClients(cfg, http.DefaultClient)
	require.NoError(t, err)

	assert.Len(t, clients, 2)
	assert.Contains(t, clients, models.ProviderGitHub)
	assert.Contains(t, clients, models.ProviderDiscord)
	assert.NotContains(t, clients, models.ProviderLinkedIn)
	assert.Contains(t, clients[models.ProviderGitHub].GetAuthURL("st", ""), "client_id=gh-id")
}

func TestInitializeCipher(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)

	t.Run("development without key stores plaintext", func(t *testing.T) {
		cfg := testConfig(t)
		c, err := initializeCipher(cfg)
		require.NoError(t, err)
		assert.Equal(t, token.CipherModePermissive, c.Mode())

		out, err := c.Encrypt("gho_plain")
		require.NoError(t, err)
		assert.Equal(t, "gho_plain", out)
	})

	t.Run("production requires key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Environment = config.EnvironmentProduction
		_, err := initializeCipher(cfg)
		require.ErrorIs(t, err, token.ErrMissingKey)
	})

	t.Run("production with key encrypts", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Environment = config.EnvironmentProduction
		cfg.TokenEncryptionKey = hexKey
		c, err := initializeCipher(cfg)
		require.NoError(t, err)
		assert.Equal(t, token.CipherModeStrict, c.Mode())

		out, err := c.Encrypt("gho_secret")
		require.NoError(t, err)
		assert.NotEqual(t, "gho_secret", out)
		plain, err := c.Decrypt(out)
		require.NoError(t, err)
		assert.Equal(t, "gho_secret", plain)
	})

	t.Run("malformed key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.TokenEncryptionKey = "short"
		_, err := initializeCipher(cfg)
		require.Error(t, err)
	})
}

type fakeBatchRunner struct {
	run   func(ctx context.Context) (*services.BatchSummary, error)
	calls atomic.Int32
}

func (f *fakeBatchRunner) RunBatch(ctx context.Context) (*services.BatchSummary, error) {
	f.calls.Add(1)
	return f.run(ctx)
}

type fakeCounter map[models.Provider]int64

func (f fakeCounter) CountConnectionsByProvider(context.Context) (map[models.Provider]int64, error) {
	return f, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func newTestRouter(t *testing.T, cfg *config.Config, runner handlers.BatchRunner) *gin.Engine {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := metrics.NewNoopMetrics()
	cipher, err := token.NewSafeCipher(nil, token.CipherModePermissive)
	require.NoError(t, err)

	connections, callbacks := initializeOAuthServices(
		cfg,
		mocks.NewMockConnectionStore(ctrl),
		services.NewOAuthClients(),
		http.DefaultClient,
		cipher,
		cache.NewMemoryCache[bool](),
		m,
	)
	h := initializeHandlers(cfg, connections, callbacks, runner,
		fakeCounter{models.ProviderGitHub: 3}, fakeHealth{})

	limiters, err := setupRateLimiting(cfg, nil)
	require.NoError(t, err)
	return setupRouter(cfg, h, m, limiters)
}

func TestRouter(t *testing.T) {
	restoreLogger(t)
	zerolog.SetGlobalLevel(zerolog.Disabled)

	cfg := testConfig(t)
	cfg.MetricsEnabled = true
	cfg.MetricsToken = "metrics-token"
	runner := &fakeBatchRunner{run: func(context.Context) (*services.BatchSummary, error) {
		return &services.BatchSummary{}, nil
	}}
	r := newTestRouter(t, cfg, runner)

	tests := []struct {
		name     string
		method   string
		path     string
		bearer   string
		wantCode int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics without token", http.MethodGet, "/metrics", "", http.StatusUnauthorized},
		{"metrics with token", http.MethodGet, "/metrics", "metrics-token", http.StatusOK},
		{"sync without key", http.MethodPost, "/api/sync/activities", "", http.StatusUnauthorized},
		{"sync with wrong key", http.MethodPost, "/api/sync/activities", "nope", http.StatusUnauthorized},
		{"sync with key", http.MethodPost, "/api/sync/activities", testSyncKey, http.StatusOK},
		{"sync status with key", http.MethodGet, "/api/sync/activities", testSyncKey, http.StatusOK},
		{"connect without session", http.MethodGet, "/api/auth/connect?provider=github", "", http.StatusUnauthorized},
		{"disconnect without session", http.MethodPost, "/api/auth/disconnect", "", http.StatusUnauthorized},
		{"callback without params", http.MethodGet, "/api/auth/callback/github", "", http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestRouter_MetricsDisabled(t *testing.T) {
	restoreLogger(t)
	zerolog.SetGlobalLevel(zerolog.Disabled)

	cfg := testConfig(t)
	r := newTestRouter(t, cfg, &fakeBatchRunner{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunScheduledBatch_GraceAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	runner := &fakeBatchRunner{run: func(batchCtx context.Context) (*services.BatchSummary, error) {
		close(started)
		<-batchCtx.Done()
		return nil, batchCtx.Err()
	}}

	done := make(chan struct{})
	go func() {
		runScheduledBatch(ctx, runner, 20*time.Millisecond)
		close(done)
	}()

	<-started
	select {
	case <-done:
		t.Fatal("batch stopped before shutdown")
	case <-time.After(30 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was not cancelled after the grace period")
	}
}

func TestRunScheduledBatch_Outcomes(t *testing.T) {
	for _, err := range []error{nil, services.ErrBatchInProgress, errors.New("db down")} {
		runner := &fakeBatchRunner{run: func(context.Context) (*services.BatchSummary, error) {
			if err != nil {
				return nil, err
			}
			return &services.BatchSummary{Total: 2, Successful: 2}, nil
		}}
		runScheduledBatch(context.Background(), runner, time.Second)
		assert.Equal(t, int32(1), runner.calls.Load())
	}
}

func TestErrorLogger(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	e := newErrorLogger(time.Hour)
	assert.True(t, e.logIfNeeded("count_connections", errors.New("first")))
	assert.False(t, e.logIfNeeded("count_connections", errors.New("second")))
	assert.True(t, e.logIfNeeded("other", errors.New("third")))

	assert.Contains(t, buf.String(), "first")
	assert.NotContains(t, buf.String(), "second")
}

func TestCloseWithTimeout(t *testing.T) {
	assert.NoError(t, closeWithTimeout(time.Second, func() error { return nil }))

	closeErr := errors.New("boom")
	assert.ErrorIs(t, closeWithTimeout(time.Second, func() error { return closeErr }), closeErr)

	block := make(chan struct{})
	defer close(block)
	err := closeWithTimeout(10*time.Millisecond, func() error {
		<-block
		return nil
	})
	assert.ErrorIs(t, err, errCloseTimeout)
}

func TestRunSyncOnce_EmptyDatabase(t *testing.T) {
	restoreLogger(t)
	cfg := testConfig(t)

	summary, err := RunSyncOnce(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestInitializeDatabase_InvalidDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "oracle"

	_, err := initializeDatabase(context.Background(), cfg)
	require.Error(t, err)
}
