package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/communitykit/activitysync/internal/util"

	"github.com/joho/godotenv"
)

// Environment constants
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Cache type constants, shared by the state replay cache and the metrics cache
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Log format constants
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

const (
	defaultSessionSecret = "session-secret-change-in-production"
	defaultStateSecret   = "oauth-state-secret-change-in-production"

	tokenKeySize = 32
)

// ErrInvalidTokenKey is returned when TOKEN_ENCRYPTION_KEY does not decode to 32 bytes.
var ErrInvalidTokenKey = errors.New(
	"TOKEN_ENCRYPTION_KEY must be 32 bytes encoded as base64 or 64 hex characters",
)

// OAuthProvider holds the client registration for one provider.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

type Config struct {
	Environment string

	// Server settings
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Session cookie shared with the host application
	SessionName string

	// Secrets
	SessionSecret      string
	TokenEncryptionKey string // base64 or hex, 32 bytes once decoded
	OAuthStateSecret   string
	SyncAPIKey         string // Bearer key for /api/sync/activities

	// Sync settings
	SyncMaxResults    int
	SyncLookbackHours int
	SyncCallTimeout   time.Duration // Per provider call (refresh, fetch, revoke)
	SyncInterval      time.Duration // In-process periodic sync, 0 disables

	// OAuth providers
	GitHub   OAuthProvider
	Twitter  OAuthProvider
	LinkedIn OAuthProvider
	Discord  OAuthProvider

	// OAuth HTTP Client Settings
	OAuthTimeout            time.Duration // HTTP client timeout for provider requests (default: 15s)
	OAuthInsecureSkipVerify bool          // Skip TLS verification for providers (dev/testing only, default: false)

	// Prometheus Metrics settings
	MetricsEnabled             bool
	MetricsToken               string // Bearer token for /metrics, empty = no auth
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string // "memory" or "redis"
	MetricsCacheTTL            time.Duration

	// Rate Limiting settings
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	SyncRateLimit            int // requests per minute on /api/sync/activities
	ConnectRateLimit         int // requests per minute on /api/auth/connect

	// Redis settings (shared by rate limiting and caches)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// OAuth state replay cache
	StateCacheType string // "memory" or "redis"

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	RedisConnTimeout      time.Duration
	RedisCloseTimeout     time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
	SyncShutdownTimeout   time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "activitysync.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")
	environment := getEnv("ENVIRONMENT", EnvironmentDevelopment)

	logFormat := LogFormatConsole
	if environment == EnvironmentProduction {
		logFormat = LogFormatJSON
	}

	return &Config{
		Environment:    environment,
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		BaseURL:        baseURL,
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		SessionName: getEnv("SESSION_NAME", "app_session"),

		SessionSecret:      getEnv("SESSION_SECRET", defaultSessionSecret),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		OAuthStateSecret:   getEnv("OAUTH_STATE_SECRET", defaultStateSecret),
		SyncAPIKey:         getEnv("SYNC_API_KEY", ""),

		// Sync settings
		SyncMaxResults:    getEnvInt("SYNC_MAX_RESULTS", 50),
		SyncLookbackHours: getEnvInt("SYNC_LOOKBACK_HOURS", 24),
		SyncCallTimeout:   getEnvDuration("SYNC_CALL_TIMEOUT", 20*time.Second),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 0),

		// OAuth providers
		GitHub:   loadProvider("GITHUB", baseURL, "github"),
		Twitter:  loadProvider("TWITTER", baseURL, "twitter"),
		LinkedIn: loadProvider("LINKEDIN", baseURL, "linkedin"),
		Discord:  loadProvider("DISCORD", baseURL, "discord"),

		// OAuth HTTP Client Settings
		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		// Prometheus Metrics settings
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", CacheTypeMemory),
		MetricsCacheTTL:            getEnvDuration("METRICS_CACHE_TTL", 5*time.Minute),

		// Rate Limiting settings
		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		SyncRateLimit:            getEnvInt("SYNC_RATE_LIMIT", 10),
		ConnectRateLimit:         getEnvInt("CONNECT_RATE_LIMIT", 30),

		// Redis settings
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StateCacheType: getEnv("STATE_CACHE_TYPE", CacheTypeMemory),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", logFormat),

		// Timeouts
		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout:     getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		SyncShutdownTimeout:   getEnvDuration("SYNC_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadProvider(prefix, baseURL, name string) OAuthProvider {
	return OAuthProvider{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", baseURL+"/api/auth/callback/"+name),
		Scopes:       getEnvSlice(prefix+"_SCOPES", nil),
	}
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// TokenKey decodes TOKEN_ENCRYPTION_KEY. An empty key yields nil.
func (c *Config) TokenKey() ([]byte, error) {
	if c.TokenEncryptionKey == "" {
		return nil, nil
	}
	return decodeKey(c.TokenEncryptionKey)
}

// Validate checks configuration values that would otherwise fail at
// first use. Missing secrets are errors only in production; see Warnings.
func (c *Config) Validate() error {
	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}

	for _, ct := range []struct {
		name, value string
	}{
		{"METRICS_CACHE_TYPE", c.MetricsCacheType},
		{"STATE_CACHE_TYPE", c.StateCacheType},
	} {
		switch ct.value {
		case CacheTypeMemory:
		case CacheTypeRedis:
			if c.RedisAddr == "" {
				return fmt.Errorf("%s=%q requires REDIS_ADDR to be set", ct.name, ct.value)
			}
		default:
			return fmt.Errorf(
				"invalid %s value: %q (must be %q or %q)",
				ct.name, ct.value, CacheTypeMemory, CacheTypeRedis,
			)
		}
	}
	if c.EnableRateLimit && c.RateLimitStore == RateLimitStoreRedis && c.RedisAddr == "" {
		return errors.New("RATE_LIMIT_STORE=\"redis\" requires REDIS_ADDR to be set")
	}

	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q (must be \"sqlite\" or \"postgres\")",
			c.DatabaseDriver)
	}

	if c.SyncMaxResults <= 0 {
		return fmt.Errorf("SYNC_MAX_RESULTS must be positive, got %d", c.SyncMaxResults)
	}
	if c.SyncLookbackHours <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK_HOURS must be positive, got %d", c.SyncLookbackHours)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative, got %s", c.SyncInterval)
	}
	if c.MetricsGaugeUpdateEnabled && c.MetricsGaugeUpdateInterval <= 0 {
		return fmt.Errorf(
			"METRICS_GAUGE_UPDATE_INTERVAL must be positive, got %s",
			c.MetricsGaugeUpdateInterval,
		)
	}

	if _, err := c.TokenKey(); err != nil {
		return err
	}

	if c.IsProduction() {
		if c.TokenEncryptionKey == "" {
			return errors.New("TOKEN_ENCRYPTION_KEY is required in production")
		}
		if c.SyncAPIKey == "" {
			return errors.New("SYNC_API_KEY is required in production")
		}
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed in production")
		}
		if c.OAuthStateSecret == defaultStateSecret {
			return errors.New("OAUTH_STATE_SECRET must be changed in production")
		}
	}
	return nil
}

// Warnings lists insecure development defaults that Validate tolerates
// outside production.
func (c *Config) Warnings() []string {
	var out []string
	if c.TokenEncryptionKey == "" {
		out = append(out, "TOKEN_ENCRYPTION_KEY is not set, provider tokens are stored in plaintext")
	}
	if c.SyncAPIKey == "" {
		out = append(out, "SYNC_API_KEY is not set, the sync endpoints reject every request")
	}
	if c.SessionSecret == defaultSessionSecret {
		out = append(out, "SESSION_SECRET uses the built-in default")
	}
	if c.OAuthStateSecret == defaultStateSecret {
		out = append(out, "OAUTH_STATE_SECRET uses the built-in default")
	}
	if c.OAuthInsecureSkipVerify {
		out = append(out, "OAUTH_INSECURE_SKIP_VERIFY is enabled")
	}
	return out
}

func decodeKey(s string) ([]byte, error) {
	key, err := util.DecodeKey(s)
	if err != nil || len(key) != tokenKeySize {
		return nil, ErrInvalidTokenKey
	}
	return key, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
