package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/communitykit/activitysync/internal/models"
)

// DefaultExpiryBuffer is how long before expiry a token is treated as expired.
const DefaultExpiryBuffer = 5 * time.Minute

// IsExpired reports whether expiresAt falls within buffer of now.
// A nil expiry never expires.
func IsExpired(expiresAt *time.Time, buffer time.Duration) bool {
	if expiresAt == nil {
		return false
	}
	return !time.Now().Before(expiresAt.Add(-buffer))
}

// SupportsRefresh reports whether provider tokens can be refreshed.
// GitHub OAuth app tokens do not expire and have no refresh grant.
func SupportsRefresh(p models.Provider) bool {
	_, ok := refreshEndpoints[p]
	return ok
}

// credentialStyle selects where client credentials travel.
type credentialStyle int

const (
	// credentialsInBody sends client_id and client_secret as form fields.
	credentialsInBody credentialStyle = iota
	// credentialsBasicWithClientID sends HTTP Basic auth and repeats client_id in the form.
	credentialsBasicWithClientID
)

type refreshEndpoint struct {
	tokenURL   string
	style      credentialStyle
	acceptJSON bool
}

var refreshEndpoints = map[models.Provider]refreshEndpoint{
	models.ProviderTwitter: {
		tokenURL: "https://api.twitter.com/2/oauth2/token",
		style:    credentialsBasicWithClientID,
	},
	models.ProviderLinkedIn: {
		tokenURL:   "https://www.linkedin.com/oauth/v2/accessToken",
		style:      credentialsInBody,
		acceptJSON: true,
	},
	models.ProviderDiscord: {
		tokenURL:   "https://discord.com/api/oauth2/token",
		style:      credentialsInBody,
		acceptJSON: true,
	},
}

// ClientCredentials holds a provider's OAuth client id and secret.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// Refresher renews expiring provider access tokens.
type Refresher struct {
	httpClient  *http.Client
	credentials map[models.Provider]ClientCredentials
	tokenURLs   map[models.Provider]string
	buffer      time.Duration
	now         func() time.Time
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithTokenURL overrides the token endpoint of a provider.
func WithTokenURL(p models.Provider, tokenURL string) RefresherOption {
	return func(r *Refresher) {
		r.tokenURLs[p] = tokenURL
	}
}

// WithExpiryBuffer overrides DefaultExpiryBuffer.
func WithExpiryBuffer(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.buffer = d
	}
}

// NewRefresher creates a Refresher. Token endpoint calls are never retried
// since providers may rotate the refresh token on each use.
func NewRefresher(
	httpClient *http.Client,
	credentials map[models.Provider]ClientCredentials,
	opts ...RefresherOption,
) *Refresher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	r := &Refresher{
		httpClient:  httpClient,
		credentials: credentials,
		tokenURLs:   make(map[models.Provider]string, len(refreshEndpoints)),
		buffer:      DefaultExpiryBuffer,
		now:         time.Now,
	}
	for p, ep := range refreshEndpoints {
		r.tokenURLs[p] = ep.tokenURL
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Refresh exchanges refreshToken for a new token pair.
func (r *Refresher) Refresh(
	ctx context.Context,
	p models.Provider,
	refreshToken string,
) (*Pair, error) {
	ep, ok := refreshEndpoints[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRefreshNotSupported, p)
	}
	creds := r.credentials[p]

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", creds.ClientID)
	if ep.style == credentialsInBody {
		form.Set("client_secret", creds.ClientSecret)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.tokenURLs[p],
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ep.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if ep.style == credentialsBasicWithClientID {
		req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrRefreshTokenInvalid
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: HTTP %d", ErrRefreshFailed, resp.StatusCode)
	}

	var payload refreshResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrRefreshFailed, err)
	}
	if payload.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	pair := &Pair{
		AccessToken: payload.AccessToken,
		ExpiresAt:   ExpiryFromSeconds(r.now(), payload.ExpiresIn),
	}
	if payload.RefreshToken != "" {
		pair.RefreshToken = &payload.RefreshToken
	} else {
		rt := refreshToken
		pair.RefreshToken = &rt
	}
	return pair, nil
}

// RefreshIfNeeded returns pair unchanged while it is still valid, and a
// refreshed pair otherwise.
func (r *Refresher) RefreshIfNeeded(
	ctx context.Context,
	p models.Provider,
	pair *Pair,
) (*Pair, error) {
	if !IsExpired(pair.ExpiresAt, r.buffer) {
		return pair, nil
	}
	if !SupportsRefresh(p) {
		return pair, nil
	}
	if pair.RefreshToken == nil || *pair.RefreshToken == "" {
		return nil, ErrExpiredNoRefreshToken
	}
	return r.Refresh(ctx, p, *pair.RefreshToken)
}
