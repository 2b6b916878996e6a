package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/util"

	"github.com/rs/zerolog/log"
)

// Callback error codes. Clients match on these values.
const (
	CodeInvalidState        = "invalid_state"
	CodeProviderMismatch    = "provider_mismatch"
	CodeCSRFMismatch        = "csrf_mismatch"
	CodeTokenExchangeFailed = "token_exchange_failed"
	CodeUserInfoFailed      = "user_info_failed"
	CodeDatabaseError       = "database_error"
	CodeMissingParams       = "missing_params"
	CodeProviderError       = "provider_error"
	CodeUnknown             = "unknown"
)

var callbackMessages = map[string]string{
	CodeInvalidState:        "Invalid or expired OAuth state. Please try again.",
	CodeProviderMismatch:    "OAuth provider mismatch.",
	CodeCSRFMismatch:        "Security check failed. Please try again.",
	CodeTokenExchangeFailed: "Failed to exchange authorization code.",
	CodeUserInfoFailed:      "Failed to load your account from the provider.",
	CodeDatabaseError:       "Failed to save the connection.",
	CodeMissingParams:       "Missing code or state parameter.",
	CodeProviderError:       "The provider denied the authorization request.",
}

const stateNonceKeyPrefix = "oauth_state:"

// CallbackRequest is the provider redirect plus the caller's CSRF cookie.
type CallbackRequest struct {
	Provider      string
	Code          string
	State         string
	CSRFCookie    string
	ProviderError string
}

// CallbackResult tells the HTTP layer where to send the user.
type CallbackResult struct {
	Success     bool
	RedirectURL string
	Error       string
	ErrorCode   string
}

// CallbackService completes provider connect flows.
type CallbackService struct {
	store       core.ConnectionStore
	clients     OAuthClients
	states      *auth.StateCodec
	cipher      TokenCipher
	usedNonces  core.Cache[bool]
	metrics     core.Recorder
	callTimeout time.Duration
}

func NewCallbackService(
	s core.ConnectionStore,
	clients OAuthClients,
	states *auth.StateCodec,
	cipher TokenCipher,
	usedNonces core.Cache[bool],
	m core.Recorder,
	callTimeout time.Duration,
) *CallbackService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &CallbackService{
		store:       s,
		clients:     clients,
		states:      states,
		cipher:      cipher,
		usedNonces:  usedNonces,
		metrics:     m,
		callTimeout: callTimeout,
	}
}

// HandleCallback verifies the state and CSRF nonce, exchanges the code,
// reads the provider identity and stores the connection. It never returns
// an error; failures are encoded in the redirect.
func (s *CallbackService) HandleCallback(
	ctx context.Context,
	req CallbackRequest,
) (result *CallbackResult) {
	redirect := DefaultRedirectPath
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("provider", req.Provider).Msg("oauth callback panicked")
			result = s.fail(req.Provider, redirect, CodeUnknown, "An unexpected error occurred.")
		}
	}()

	if req.ProviderError != "" {
		// The state is still used for the redirect when it checks out.
		if payload, err := s.states.Parse(req.State); err == nil && util.IsSafeRedirectPath(payload.RedirectPath) {
			redirect = payload.RedirectPath
		}
		return s.failCode(req.Provider, redirect, CodeProviderError)
	}
	if req.Code == "" || req.State == "" {
		return s.failCode(req.Provider, redirect, CodeMissingParams)
	}

	payload, err := s.states.Parse(req.State)
	if err != nil {
		log.Warn().Err(err).Str("provider", req.Provider).Msg("invalid oauth state")
		return s.failCode(req.Provider, redirect, CodeInvalidState)
	}
	if util.IsSafeRedirectPath(payload.RedirectPath) {
		redirect = payload.RedirectPath
	}

	p, ok := models.ParseProvider(req.Provider)
	if !ok || p != payload.Provider {
		return s.failCode(req.Provider, redirect, CodeProviderMismatch)
	}

	if !auth.ValidateNonce(req.CSRFCookie, payload.Nonce) {
		return s.failCode(req.Provider, redirect, CodeCSRFMismatch)
	}

	if !s.consumeNonce(ctx, payload.Nonce) {
		log.Warn().Str("provider", req.Provider).Msg("oauth state replayed")
		return s.failCode(req.Provider, redirect, CodeInvalidState)
	}

	client, ok := s.clients[p]
	if !ok {
		return s.fail(req.Provider, redirect, CodeUnknown,
			fmt.Sprintf("%s is not configured", p))
	}

	conn, code, err := s.connect(ctx, client, req.Code, payload)
	if err != nil {
		log.Warn().
			Err(err).
			Str("provider", p.String()).
			Str("code", code).
			Msg("oauth callback failed")
		if code == CodeUnknown {
			return s.fail(req.Provider, redirect, code, err.Error())
		}
		return s.failCode(req.Provider, redirect, code)
	}

	log.Info().
		Str("user_id", conn.UserID).
		Str("provider", p.String()).
		Msg("provider connected")
	s.metrics.RecordOAuthCallback(p.String(), true, "")
	return &CallbackResult{
		Success:     true,
		RedirectURL: util.AppendQuery(redirect, "oauth", "success", "provider", p.String()),
	}
}

// connect exchanges the code and upserts the connection. On failure it
// returns the matching callback error code.
func (s *CallbackService) connect(
	ctx context.Context,
	client OAuthClient,
	code string,
	payload *auth.StatePayload,
) (*models.Connection, string, error) {
	p := client.Provider()

	exchangeCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	start := time.Now()
	tok, err := client.ExchangeCode(exchangeCtx, code, payload.CodeVerifier)
	s.metrics.RecordExternalAPICall(p.String(), "token_exchange", time.Since(start))
	if err != nil {
		return nil, CodeTokenExchangeFailed, err
	}
	if tok.AccessToken == "" {
		return nil, CodeTokenExchangeFailed, errors.New("no access token in response")
	}

	userCtx, cancelUser := context.WithTimeout(ctx, s.callTimeout)
	defer cancelUser()
	start = time.Now()
	info, err := client.GetUserInfo(userCtx, tok.AccessToken)
	s.metrics.RecordExternalAPICall(p.String(), "user_info", time.Since(start))
	if err != nil {
		return nil, CodeUserInfoFailed, err
	}

	access, err := s.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return nil, CodeUnknown, fmt.Errorf("failed to encrypt token: %w", err)
	}
	var refreshPlain *string
	if tok.RefreshToken != "" {
		refreshPlain = &tok.RefreshToken
	}
	refresh, err := s.cipher.EncryptOptional(refreshPlain)
	if err != nil {
		return nil, CodeUnknown, fmt.Errorf("failed to encrypt token: %w", err)
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		expiresAt = &expiry
	}

	conn := &models.Connection{
		UserID:         payload.UserID,
		Provider:       p,
		ProviderUserID: info.ProviderUserID,
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenExpiresAt: expiresAt,
	}
	if info.Username != "" {
		username := info.Username
		conn.ProviderUsername = &username
	}
	if err := s.store.UpsertConnection(ctx, conn); err != nil {
		return nil, CodeDatabaseError, err
	}
	return conn, "", nil
}

// consumeNonce records nonce as used and reports whether it was fresh.
// A cache outage does not block the flow since the signed state and CSRF
// cookie have already been verified.
func (s *CallbackService) consumeNonce(ctx context.Context, nonce string) bool {
	if s.usedNonces == nil {
		return true
	}
	fresh, err := s.usedNonces.SetIfAbsent(ctx, stateNonceKeyPrefix+nonce, true, s.states.TTL())
	if err != nil {
		log.Warn().Err(err).Msg("state replay cache unavailable")
		return true
	}
	return fresh
}

func (s *CallbackService) failCode(provider, redirect, code string) *CallbackResult {
	return s.fail(provider, redirect, code, callbackMessages[code])
}

func (s *CallbackService) fail(provider, redirect, code, message string) *CallbackResult {
	s.metrics.RecordOAuthCallback(providerLabel(provider), false, code)
	return &CallbackResult{
		Success:     false,
		RedirectURL: util.AppendQuery(redirect, "oauth", "error", "code", code, "message", message),
		Error:       message,
		ErrorCode:   code,
	}
}

// providerLabel keeps unrecognized path values out of metric labels.
func providerLabel(name string) string {
	if p, ok := models.ParseProvider(name); ok {
		return p.String()
	}
	return "unknown"
}
