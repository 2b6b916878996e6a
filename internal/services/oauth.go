package services

import (
	"context"
	"errors"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/models"

	"golang.org/x/oauth2"
)

// DefaultRedirectPath is where users land after an OAuth flow that has no
// usable redirect of its own.
const DefaultRedirectPath = "/settings"

var (
	// ErrUnsafeRedirect is returned for redirect targets that are not
	// same-origin relative paths.
	ErrUnsafeRedirect = errors.New("redirect must be a relative path")

	// ErrNotConnected is returned when the user has no connection to the provider.
	ErrNotConnected = errors.New("provider not connected")
)

// OAuthClient is the provider side of the connect flow.
// *auth.OAuthProvider satisfies it.
type OAuthClient interface {
	Provider() models.Provider
	UsesPKCE() bool
	GetAuthURL(state, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, accessToken string) (*auth.OAuthUserInfo, error)
}

// TokenRevoker invalidates provider tokens on disconnect.
// *auth.Revoker satisfies it.
type TokenRevoker interface {
	Revoke(ctx context.Context, p models.Provider, accessToken string, refreshToken *string) (bool, error)
}

// OAuthClients indexes configured provider clients.
type OAuthClients map[models.Provider]OAuthClient

// NewOAuthClients indexes clients by provider.
func NewOAuthClients(clients ...OAuthClient) OAuthClients {
	out := make(OAuthClients, len(clients))
	for _, c := range clients {
		out[c.Provider()] = c
	}
	return out
}
