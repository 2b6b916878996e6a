package bootstrap

import (
	"net/http"

	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	m core.Recorder,
	limiters rateLimitMiddlewares,
) *gin.Engine {
	setupGinMode(cfg)

	r := gin.New()
	r.Use(metrics.HTTPMetricsMiddleware(m))
	r.Use(gin.Logger(), gin.Recovery())

	setupSessionMiddleware(r, cfg)

	r.GET("/health", h.health)
	setupMetricsEndpoint(r, cfg)
	setupAllRoutes(r, cfg, h, limiters)

	log.Info().
		Str("addr", cfg.ServerAddr).
		Str("base_url", cfg.BaseURL).
		Msg("activity sync server configured")
	return r
}

// setupSessionMiddleware reads the session cookie issued by the host
// application. This service never writes login state.
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.SessionName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info().Msg("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info().Msg("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info().Msg("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	limiters rateLimitMiddlewares,
) {
	// Provider connections (browser, session-authenticated)
	oauthGroup := r.Group("/api/auth")
	{
		oauthGroup.GET("/connect", limiters.connect, middleware.RequireUser(), h.oauth.Connect)
		oauthGroup.GET("/callback/:provider", h.oauth.Callback)
		oauthGroup.POST("/disconnect", middleware.RequireUser(), h.oauth.Disconnect)
	}

	// Sync trigger (machine-to-machine, bearer key)
	syncGroup := r.Group("/api/sync")
	syncGroup.Use(limiters.sync, middleware.SyncAuthMiddleware(cfg.SyncAPIKey))
	{
		syncGroup.POST("/activities", h.sync.TriggerSync)
		syncGroup.GET("/activities", h.sync.Status)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction()]
	gin.SetMode(mode)
	log.Info().Str("mode", mode).Msg("gin mode set")
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}
