package bootstrap

import (
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/handlers"
	"github.com/communitykit/activitysync/internal/services"

	"github.com/gin-gonic/gin"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	oauth  *handlers.OAuthHandler
	sync   *handlers.SyncHandler
	health gin.HandlerFunc
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	connections *services.ConnectionService,
	callbacks *services.CallbackService,
	runner handlers.BatchRunner,
	counter handlers.ConnectionCounter,
	db handlers.HealthChecker,
) handlerSet {
	return handlerSet{
		oauth:  handlers.NewOAuthHandler(connections, callbacks, cfg.IsProduction()),
		sync:   handlers.NewSyncHandler(runner, counter),
		health: handlers.NewHealthHandler(db),
	}
}
