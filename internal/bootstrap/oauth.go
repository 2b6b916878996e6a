package bootstrap

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/client"
	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/rs/zerolog/log"
)

// createProviderHTTPClient creates the pooled client used for every call to
// a provider.
func createProviderHTTPClient(cfg *config.Config) (*http.Client, error) {
	return client.NewProviderHTTPClient(cfg.OAuthTimeout, cfg.OAuthInsecureSkipVerify)
}

// providerSettings maps each provider to its client registration.
func providerSettings(cfg *config.Config) map[models.Provider]config.OAuthProvider {
	return map[models.Provider]config.OAuthProvider{
		models.ProviderGitHub:   cfg.GitHub,
		models.ProviderTwitter:  cfg.Twitter,
		models.ProviderLinkedIn: cfg.LinkedIn,
		models.ProviderDiscord:  cfg.Discord,
	}
}

// providerCredentials returns client credentials for configured providers.
func providerCredentials(cfg *config.Config) map[models.Provider]token.ClientCredentials {
	creds := make(map[models.Provider]token.ClientCredentials)
	for p, s := range providerSettings(cfg) {
		if s.ClientID == "" || s.ClientSecret == "" {
			continue
		}
		creds[p] = token.ClientCredentials{ClientID: s.ClientID, ClientSecret: s.ClientSecret}
	}
	return creds
}

// initializeOAuthClients builds a client for every configured provider.
// Providers without credentials are skipped; connecting to them answers
// "not configured".
func initializeOAuthClients(cfg *config.Config, httpClient *http.Client) (services.OAuthClients, error) {
	settings := providerSettings(cfg)
	clients := make([]services.OAuthClient, 0, len(settings))
	names := make([]string, 0, len(settings))

	for _, p := range models.AllProviders {
		s := settings[p]
		op, err := auth.NewOAuthProvider(p, auth.OAuthProviderConfig{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			RedirectURL:  s.RedirectURL,
			Scopes:       s.Scopes,
		}, auth.WithHTTPClient(httpClient))
		switch {
		case errors.Is(err, auth.ErrProviderNotConfigured):
			if s.ClientID != "" || s.ClientSecret != "" {
				log.Warn().Str("provider", p.String()).Msg("CLIENT_ID or CLIENT_SECRET missing, provider disabled")
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to initialize %s oauth client: %w", p, err)
		}
		clients = append(clients, op)
		names = append(names, p.String())
		log.Info().Str("provider", p.String()).Str("redirect", s.RedirectURL).Msg("oauth provider configured")
	}

	if len(names) == 0 {
		log.Warn().Msg("no oauth providers configured")
	} else {
		log.Info().Strs("providers", names).Msg("oauth providers enabled")
	}
	return services.NewOAuthClients(clients...), nil
}

// initializeCipher builds the token cipher. Production refuses to run
// without a key; development falls back to plaintext storage.
func initializeCipher(cfg *config.Config) (*token.SafeCipher, error) {
	key, err := cfg.TokenKey()
	if err != nil {
		return nil, err
	}
	mode := token.CipherModePermissive
	if cfg.IsProduction() {
		mode = token.CipherModeStrict
	}
	cipher, err := token.NewSafeCipher(key, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}
	log.Info().Str("mode", mode.String()).Bool("encrypted", len(key) > 0).Msg("token cipher initialized")
	return cipher, nil
}
