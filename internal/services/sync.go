package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/fetcher"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultCallTimeout bounds every provider call made during a sync.
	DefaultCallTimeout = 20 * time.Second

	errNoAccessToken  = "no access token"
	errUnexpectedSync = "unexpected error during sync"
	errDecryptFailed  = "failed to decrypt tokens"
	errRefreshFailed  = "token refresh failed"
	errFetchNilResult = "fetcher returned no result"
)

// TokenCipher encrypts and decrypts stored provider tokens.
// *token.SafeCipher satisfies it.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
	EncryptOptional(plaintext *string) (*string, error)
	DecryptOptional(blob *string) (*string, error)
}

// TokenRefresher renews expired provider tokens.
// *token.Refresher satisfies it.
type TokenRefresher interface {
	RefreshIfNeeded(ctx context.Context, p models.Provider, pair *token.Pair) (*token.Pair, error)
}

// SyncResult is the outcome of syncing one connection. NewTokens holds
// plaintext credentials and is set only when a refresh happened, even if
// the fetch afterwards failed.
type SyncResult struct {
	ConnectionID   string                     `json:"connectionId"`
	UserID         string                     `json:"userId"`
	Provider       models.Provider            `json:"provider"`
	Success        bool                       `json:"success"`
	Activities     []models.ProcessedActivity `json:"activities,omitempty"`
	Error          string                     `json:"error,omitempty"`
	TokenRefreshed bool                       `json:"tokenRefreshed"`
	NewTokens      *token.Pair                `json:"-"`
}

// SyncConfig tunes a SyncService.
type SyncConfig struct {
	Fetch       fetcher.Config
	CallTimeout time.Duration
}

// SyncService pulls activities for stored connections, refreshing tokens
// on the way. Connections are processed one at a time.
type SyncService struct {
	fetchers    fetcher.Registry
	refresher   TokenRefresher
	cipher      TokenCipher
	metrics     core.Recorder
	fetchConfig fetcher.Config
	callTimeout time.Duration
}

func NewSyncService(
	fetchers fetcher.Registry,
	refresher TokenRefresher,
	cipher TokenCipher,
	m core.Recorder,
	cfg SyncConfig,
) *SyncService {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &SyncService{
		fetchers:    fetchers,
		refresher:   refresher,
		cipher:      cipher,
		metrics:     m,
		fetchConfig: cfg.Fetch,
		callTimeout: cfg.CallTimeout,
	}
}

// SyncAllConnections syncs conns in order. The returned slice always has
// one result per connection.
func (s *SyncService) SyncAllConnections(
	ctx context.Context,
	conns []models.Connection,
) []*SyncResult {
	results := make([]*SyncResult, 0, len(conns))
	for i := range conns {
		results = append(results, s.syncIsolated(ctx, &conns[i]))
	}
	return results
}

// syncIsolated guarantees a result even if SyncConnection itself panics
// before its own recovery is installed.
func (s *SyncService) syncIsolated(ctx context.Context, conn *models.Connection) (result *SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			result = newSyncResult(conn)
			result.Error = errUnexpectedSync
		}
	}()
	return s.SyncConnection(ctx, conn)
}

// SyncConnection refreshes the connection's token if needed and fetches
// its recent activity. Failures are reported in the result, never returned
// or propagated.
func (s *SyncService) SyncConnection(ctx context.Context, conn *models.Connection) (result *SyncResult) {
	result = newSyncResult(conn)
	logger := log.With().
		Str("connection_id", conn.ID).
		Str("provider", conn.Provider.String()).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("sync panicked")
			result.Success = false
			result.Activities = nil
			result.Error = errUnexpectedSync
		}
	}()

	if conn.AccessToken == "" {
		result.Error = errNoAccessToken
		return result
	}

	f, ok := s.fetchers.Get(conn.Provider)
	if !conn.Provider.IsSyncable() || !ok {
		result.Error = fmt.Sprintf("unsupported provider: %s", conn.Provider)
		return result
	}

	original, err := s.decryptTokens(conn)
	if err != nil {
		logger.Warn().Err(err).Msg("token decryption failed")
		result.Error = errDecryptFailed
		return result
	}

	current, err := s.refreshIfNeeded(ctx, conn.Provider, original)
	if err != nil {
		s.metrics.RecordTokenRefresh(conn.Provider.String(), false)
		logger.Warn().Err(err).Msg("token refresh failed")
		result.Error = fmt.Sprintf("%s: %v", errRefreshFailed, err)
		return result
	}

	if tokensChanged(original, current) {
		s.metrics.RecordTokenRefresh(conn.Provider.String(), true)
		result.TokenRefreshed = true
		result.NewTokens = current
	}

	fetched := s.fetch(ctx, f, current.AccessToken, accountRef(conn))
	if fetched == nil {
		result.Error = errFetchNilResult
		return result
	}
	if !fetched.Success {
		logger.Warn().
			Str("error_kind", string(fetched.ErrorKind)).
			Str("error", fetched.Error).
			Msg("fetch failed")
		result.Error = fetched.Error
		return result
	}

	activities := make([]models.ProcessedActivity, 0, len(fetched.Activities))
	for _, raw := range fetched.Activities {
		activities = append(activities, f.MapToProcessedActivity(raw))
	}
	result.Success = true
	result.Activities = activities
	return result
}

// tokensChanged reports whether a refresh produced anything worth storing.
// Some providers renew the expiry or rotate only the refresh token while
// keeping the access token.
func tokensChanged(before, after *token.Pair) bool {
	if before.AccessToken != after.AccessToken {
		return true
	}
	if !equalStringPtr(before.RefreshToken, after.RefreshToken) {
		return true
	}
	switch {
	case before.ExpiresAt == nil && after.ExpiresAt == nil:
		return false
	case before.ExpiresAt == nil || after.ExpiresAt == nil:
		return true
	default:
		return !before.ExpiresAt.Equal(*after.ExpiresAt)
	}
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *SyncService) decryptTokens(conn *models.Connection) (*token.Pair, error) {
	access, err := s.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.cipher.DecryptOptional(conn.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &token.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    conn.TokenExpiresAt,
	}, nil
}

func (s *SyncService) refreshIfNeeded(
	ctx context.Context,
	p models.Provider,
	pair *token.Pair,
) (*token.Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	refreshed, err := s.refresher.RefreshIfNeeded(ctx, p, pair)
	if refreshed != pair && !errors.Is(err, token.ErrExpiredNoRefreshToken) {
		s.metrics.RecordExternalAPICall(p.String(), "token_refresh", time.Since(start))
	}
	return refreshed, err
}

func (s *SyncService) fetch(
	ctx context.Context,
	f fetcher.Fetcher,
	accessToken, account string,
) *fetcher.Result {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	res := f.FetchActivities(ctx, accessToken, account, s.fetchConfig)
	s.metrics.RecordExternalAPICall(f.Provider().String(), "fetch_activities", time.Since(start))
	return res
}

// accountRef is the identifier the provider's activity API expects.
// GitHub event feeds are keyed by login.
func accountRef(conn *models.Connection) string {
	if conn.Provider == models.ProviderGitHub &&
		conn.ProviderUsername != nil && *conn.ProviderUsername != "" {
		return *conn.ProviderUsername
	}
	return conn.ProviderUserID
}

func newSyncResult(conn *models.Connection) *SyncResult {
	return &SyncResult{
		ConnectionID: conn.ID,
		UserID:       conn.UserID,
		Provider:     conn.Provider,
	}
}
