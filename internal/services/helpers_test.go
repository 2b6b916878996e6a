package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/fetcher"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeFetcher returns canned results and records the tokens it was given.
type fakeFetcher struct {
	provider models.Provider
	fetch    func(accessToken, account string) *fetcher.Result

	mu     sync.Mutex
	tokens []string
}

func (f *fakeFetcher) Provider() models.Provider { return f.provider }

func (f *fakeFetcher) FetchActivities(
	_ context.Context,
	accessToken, account string,
	_ fetcher.Config,
) *fetcher.Result {
	f.mu.Lock()
	f.tokens = append(f.tokens, accessToken)
	f.mu.Unlock()
	return f.fetch(accessToken, account)
}

func (f *fakeFetcher) MapToProcessedActivity(raw fetcher.RawActivity) models.ProcessedActivity {
	return models.ProcessedActivity{
		Provider:           f.provider,
		ProviderActivityID: raw.ID,
		ActivityType:       models.ActivityOSSContribution,
		Title:              raw.Title,
		SuggestedPoints:    50,
	}
}

func (f *fakeFetcher) seenTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func okResult(ids ...string) *fetcher.Result {
	acts := make([]fetcher.RawActivity, 0, len(ids))
	for _, id := range ids {
		acts = append(acts, fetcher.RawActivity{ID: id, Title: "activity " + id, Timestamp: time.Now()})
	}
	return &fetcher.Result{Success: true, Activities: acts}
}

func failResult(kind fetcher.ErrorKind, msg string) *fetcher.Result {
	return &fetcher.Result{Success: false, Error: msg, ErrorKind: kind}
}

// fakeRefresher hands back a fixed pair, or an error.
type fakeRefresher struct {
	pair *token.Pair
	err  error
}

func (r *fakeRefresher) RefreshIfNeeded(
	_ context.Context,
	_ models.Provider,
	pair *token.Pair,
) (*token.Pair, error) {
	if r == nil || (r.pair == nil && r.err == nil) {
		return pair, nil
	}
	return r.pair, r.err
}

// fakeOAuthClient stands in for a provider's OAuth endpoints.
type fakeOAuthClient struct {
	provider models.Provider
	pkce     bool

	token       *oauth2.Token
	exchangeErr error
	user        *auth.OAuthUserInfo
	userErr     error

	gotCode     string
	gotVerifier string
}

func (c *fakeOAuthClient) Provider() models.Provider { return c.provider }
func (c *fakeOAuthClient) UsesPKCE() bool            { return c.pkce }

func (c *fakeOAuthClient) GetAuthURL(state, challenge string) string {
	u := "https://provider.example/authorize?state=" + state
	if challenge != "" {
		u += "&code_challenge=" + challenge
	}
	return u
}

func (c *fakeOAuthClient) ExchangeCode(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	c.gotCode, c.gotVerifier = code, verifier
	return c.token, c.exchangeErr
}

func (c *fakeOAuthClient) GetUserInfo(_ context.Context, _ string) (*auth.OAuthUserInfo, error) {
	return c.user, c.userErr
}

// fakeRevoker records revocation calls.
type fakeRevoker struct {
	revoked bool
	err     error

	calls        int
	accessToken  string
	refreshToken *string
}

func (r *fakeRevoker) Revoke(
	_ context.Context,
	_ models.Provider,
	accessToken string,
	refreshToken *string,
) (bool, error) {
	r.calls++
	r.accessToken, r.refreshToken = accessToken, refreshToken
	return r.revoked, r.err
}

func plainCipher(t *testing.T) *token.SafeCipher {
	t.Helper()
	c, err := token.NewSafeCipher(nil, token.CipherModePermissive)
	require.NoError(t, err)
	return c
}

func strictCipher(t *testing.T) *token.SafeCipher {
	t.Helper()
	key := make([]byte, token.KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	c, err := token.NewSafeCipher(key, token.CipherModeStrict)
	require.NoError(t, err)
	return c
}

func newTestSyncService(refresher TokenRefresher, cipher TokenCipher, fetchers ...fetcher.Fetcher) *SyncService {
	return NewSyncService(
		fetcher.NewRegistry(fetchers...),
		refresher,
		cipher,
		metrics.NewNoopMetrics(),
		SyncConfig{Fetch: fetcher.DefaultConfig(), CallTimeout: 5 * time.Second},
	)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
