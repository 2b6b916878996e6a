package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/communitykit/activitysync/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Configured reports whether client credentials are present.
func (c OAuthProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthUserInfo is the provider-side identity of a connecting user.
type OAuthUserInfo struct {
	ProviderUserID string
	Username       string
}

// providerDef describes the fixed endpoints of one provider.
type providerDef struct {
	endpoint    oauth2.Endpoint
	userInfoURL string
	usePKCE     bool
	decode      func(body []byte) (*OAuthUserInfo, error)
}

var providerDefs = map[models.Provider]providerDef{
	models.ProviderGitHub: {
		endpoint: oauth2.Endpoint{
			AuthURL:   github.Endpoint.AuthURL,
			TokenURL:  github.Endpoint.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: "https://api.github.com/user",
		decode:      decodeGitHubUser,
	},
	models.ProviderTwitter: {
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://twitter.com/i/oauth2/authorize",
			TokenURL:  "https://api.twitter.com/2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		userInfoURL: "https://api.twitter.com/2/users/me",
		usePKCE:     true,
		decode:      decodeTwitterUser,
	},
	models.ProviderLinkedIn: {
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: "https://api.linkedin.com/v2/userinfo",
		decode:      decodeLinkedInUser,
	},
	models.ProviderDiscord: {
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://discord.com/oauth2/authorize",
			TokenURL:  "https://discord.com/api/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: "https://discord.com/api/users/@me",
		decode:      decodeDiscordUser,
	},
}

// DefaultScopes are requested when no scopes are configured.
var DefaultScopes = map[models.Provider][]string{
	models.ProviderGitHub:   {"read:user"},
	models.ProviderTwitter:  {"tweet.read", "users.read", "offline.access"},
	models.ProviderLinkedIn: {"openid", "profile", "r_member_social"},
	models.ProviderDiscord:  {"identify"},
}

// OAuthProvider handles the authorization code flow for one provider.
type OAuthProvider struct {
	provider    models.Provider
	config      *oauth2.Config
	userInfoURL string
	usePKCE     bool
	decode      func(body []byte) (*OAuthUserInfo, error)
	httpClient  *http.Client
}

// ProviderOption configures an OAuthProvider.
type ProviderOption func(*OAuthProvider)

// WithHTTPClient sets the client used for token exchange and user info.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OAuthProvider) {
		p.httpClient = c
	}
}

// WithEndpoint overrides the authorization and token URLs.
func WithEndpoint(authURL, tokenURL string) ProviderOption {
	return func(p *OAuthProvider) {
		p.config.Endpoint.AuthURL = authURL
		p.config.Endpoint.TokenURL = tokenURL
	}
}

// WithUserInfoURL overrides the identity endpoint.
func WithUserInfoURL(u string) ProviderOption {
	return func(p *OAuthProvider) {
		p.userInfoURL = u
	}
}

// NewOAuthProvider creates the OAuth client for provider p.
func NewOAuthProvider(
	p models.Provider,
	cfg OAuthProviderConfig,
	opts ...ProviderOption,
) (*OAuthProvider, error) {
	def, ok := providerDefs[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, p)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes[p]
	}

	op := &OAuthProvider{
		provider: p,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     def.endpoint,
		},
		userInfoURL: def.userInfoURL,
		usePKCE:     def.usePKCE,
		decode:      def.decode,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(op)
	}
	return op, nil
}

// Provider returns the provider this client serves.
func (p *OAuthProvider) Provider() models.Provider {
	return p.provider
}

// UsesPKCE reports whether the provider requires a PKCE verifier.
func (p *OAuthProvider) UsesPKCE() bool {
	return p.usePKCE
}

// GetAuthURL returns the authorization URL. challenge is sent only for
// PKCE providers.
func (p *OAuthProvider) GetAuthURL(state, challenge string) string {
	opts := []oauth2.AuthCodeOption{}
	if p.usePKCE && challenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", challenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *OAuthProvider) ExchangeCode(
	ctx context.Context,
	code, verifier string,
) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	opts := []oauth2.AuthCodeOption{}
	if p.usePKCE && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	return p.config.Exchange(ctx, code, opts...)
}

// GetUserInfo reads the provider identity for accessToken.
func (p *OAuthProvider) GetUserInfo(ctx context.Context, accessToken string) (*OAuthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s API returned HTTP %d", ErrUserInfo, p.provider, resp.StatusCode)
	}

	info, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	if info.ProviderUserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrUserInfo)
	}
	return info, nil
}

func decodeGitHubUser(body []byte) (*OAuthUserInfo, error) {
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	info := &OAuthUserInfo{Username: user.Login}
	if user.ID != 0 {
		info.ProviderUserID = strconv.FormatInt(user.ID, 10)
	}
	return info, nil
}

func decodeTwitterUser(body []byte) (*OAuthUserInfo, error) {
	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &OAuthUserInfo{ProviderUserID: resp.Data.ID, Username: resp.Data.Username}, nil
}

func decodeLinkedInUser(body []byte) (*OAuthUserInfo, error) {
	var user struct {
		Sub  string `json:"sub"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	return &OAuthUserInfo{ProviderUserID: user.Sub, Username: user.Name}, nil
}

func decodeDiscordUser(body []byte) (*OAuthUserInfo, error) {
	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	return &OAuthUserInfo{ProviderUserID: user.ID, Username: user.Username}, nil
}
