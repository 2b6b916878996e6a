package bootstrap

import (
	"net/http"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/fetcher"
	"github.com/communitykit/activitysync/internal/retry"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/token"
)

// initializeSyncRunner wires fetchers, the refresh policy and the
// orchestrator into a batch runner.
func initializeSyncRunner(
	cfg *config.Config,
	store core.ConnectionStore,
	httpClient *http.Client,
	cipher services.TokenCipher,
	m core.Recorder,
) *services.SyncRunner {
	doer := retry.NewClient(retry.WithHTTPClient(httpClient))
	fetchers := fetcher.NewRegistry(
		fetcher.NewGitHubFetcher(doer),
		fetcher.NewTwitterFetcher(doer),
		fetcher.NewLinkedInFetcher(doer),
	)
	refresher := token.NewRefresher(httpClient, providerCredentials(cfg))

	syncService := services.NewSyncService(fetchers, refresher, cipher, m, services.SyncConfig{
		Fetch: fetcher.Config{
			MaxResults:    cfg.SyncMaxResults,
			LookbackHours: cfg.SyncLookbackHours,
		},
		CallTimeout: cfg.SyncCallTimeout,
	})
	return services.NewSyncRunner(store, syncService, cipher, m)
}

// initializeOAuthServices creates the connect/disconnect and callback services.
func initializeOAuthServices(
	cfg *config.Config,
	store core.ConnectionStore,
	clients services.OAuthClients,
	httpClient *http.Client,
	cipher services.TokenCipher,
	stateCache core.Cache[bool],
	m core.Recorder,
) (*services.ConnectionService, *services.CallbackService) {
	states := auth.NewStateCodec([]byte(cfg.OAuthStateSecret))
	revoker := auth.NewRevoker(httpClient, providerCredentials(cfg), nil)

	connections := services.NewConnectionService(
		store, clients, states, cipher, revoker, m, cfg.SyncCallTimeout,
	)
	callbacks := services.NewCallbackService(
		store, clients, states, cipher, stateCache, m, cfg.SyncCallTimeout,
	)
	return connections, callbacks
}
