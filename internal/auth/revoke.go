package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/token"
)

// revokeStyle selects the request shape for a provider's revocation endpoint.
type revokeStyle int

const (
	// revokeFormWithSecret posts token, client_id and client_secret as a form.
	revokeFormWithSecret revokeStyle = iota
	// revokeGitHubApp deletes the grant through the GitHub applications API.
	revokeGitHubApp
	// revokeFormBasicHint posts the token with token_type_hint under Basic auth.
	revokeFormBasicHint
)

var revokeEndpoints = map[models.Provider]struct {
	url   string
	style revokeStyle
}{
	models.ProviderGitHub:   {"https://api.github.com/applications/{client_id}/token", revokeGitHubApp},
	models.ProviderTwitter:  {"https://api.twitter.com/2/oauth2/revoke", revokeFormBasicHint},
	models.ProviderLinkedIn: {"https://www.linkedin.com/oauth/v2/revoke", revokeFormWithSecret},
	models.ProviderDiscord:  {"https://discord.com/api/oauth2/token/revoke", revokeFormWithSecret},
}

// Revoker invalidates provider tokens when a user disconnects.
type Revoker struct {
	httpClient  *http.Client
	credentials map[models.Provider]token.ClientCredentials
	urls        map[models.Provider]string
}

// NewRevoker creates a Revoker. overrides replaces endpoint URLs by provider.
func NewRevoker(
	httpClient *http.Client,
	credentials map[models.Provider]token.ClientCredentials,
	overrides map[models.Provider]string,
) *Revoker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	urls := make(map[models.Provider]string, len(revokeEndpoints))
	for p, ep := range revokeEndpoints {
		urls[p] = ep.url
	}
	for p, u := range overrides {
		urls[p] = u
	}
	return &Revoker{httpClient: httpClient, credentials: credentials, urls: urls}
}

// Revoke invalidates accessToken (and refreshToken where the provider
// tracks it separately). It reports whether the access token is known to
// be unusable afterwards. A 400 or 401 answer means the token was already
// invalid and counts as revoked.
func (r *Revoker) Revoke(
	ctx context.Context,
	p models.Provider,
	accessToken string,
	refreshToken *string,
) (bool, error) {
	ep, ok := revokeEndpoints[p]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
	creds := r.credentials[p]
	if creds.ClientID == "" {
		return false, fmt.Errorf("%w: %s", ErrProviderNotConfigured, p)
	}

	switch ep.style {
	case revokeGitHubApp:
		return r.revokeGitHub(ctx, p, creds, accessToken)
	case revokeFormBasicHint:
		revoked, err := r.postForm(ctx, p, creds, url.Values{
			"token":           {accessToken},
			"token_type_hint": {"access_token"},
			"client_id":       {creds.ClientID},
		}, true)
		if refreshToken != nil && *refreshToken != "" {
			// Best effort; the access token result is what callers report.
			_, _ = r.postForm(ctx, p, creds, url.Values{
				"token":           {*refreshToken},
				"token_type_hint": {"refresh_token"},
				"client_id":       {creds.ClientID},
			}, true)
		}
		return revoked, err
	default:
		return r.postForm(ctx, p, creds, url.Values{
			"token":         {accessToken},
			"client_id":     {creds.ClientID},
			"client_secret": {creds.ClientSecret},
		}, false)
	}
}

func (r *Revoker) revokeGitHub(
	ctx context.Context,
	p models.Provider,
	creds token.ClientCredentials,
	accessToken string,
) (bool, error) {
	body, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return false, err
	}
	target := strings.ReplaceAll(r.urls[p], "{client_id}", url.PathEscape(creds.ClientID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")

	return r.do(req, p)
}

func (r *Revoker) postForm(
	ctx context.Context,
	p models.Provider,
	creds token.ClientCredentials,
	form url.Values,
	basic bool,
) (bool, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.urls[p],
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basic {
		req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	}
	return r.do(req, p)
}

func (r *Revoker) do(req *http.Request, p models.Provider) (bool, error) {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s returned HTTP %d", ErrRevocationFailed, p, resp.StatusCode)
	}
}
