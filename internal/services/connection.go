package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/store"
	"github.com/communitykit/activitysync/internal/util"

	"github.com/rs/zerolog/log"
)

// ConnectResult carries what the HTTP layer needs to start a connect flow.
type ConnectResult struct {
	AuthURL string
	// Nonce goes into the CSRF cookie.
	Nonce string
}

// DisconnectResult reports whether the provider confirmed revocation.
type DisconnectResult struct {
	TokenRevoked bool `json:"tokenRevoked"`
}

// ConnectionService starts connect flows and removes connections.
type ConnectionService struct {
	store       core.ConnectionStore
	clients     OAuthClients
	states      *auth.StateCodec
	cipher      TokenCipher
	revoker     TokenRevoker
	metrics     core.Recorder
	callTimeout time.Duration
}

func NewConnectionService(
	s core.ConnectionStore,
	clients OAuthClients,
	states *auth.StateCodec,
	cipher TokenCipher,
	revoker TokenRevoker,
	m core.Recorder,
	callTimeout time.Duration,
) *ConnectionService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &ConnectionService{
		store:       s,
		clients:     clients,
		states:      states,
		cipher:      cipher,
		revoker:     revoker,
		metrics:     m,
		callTimeout: callTimeout,
	}
}

// Connect builds the provider authorization URL for userID. An empty
// redirect falls back to DefaultRedirectPath.
func (s *ConnectionService) Connect(
	userID, providerName, redirect string,
) (*ConnectResult, error) {
	p, ok := models.ParseProvider(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", auth.ErrUnsupportedProvider, providerName)
	}
	if redirect == "" {
		redirect = DefaultRedirectPath
	}
	if !util.IsSafeRedirectPath(redirect) {
		return nil, ErrUnsafeRedirect
	}
	client, ok := s.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", auth.ErrProviderNotConfigured, p)
	}

	payload := auth.StatePayload{
		UserID:       userID,
		RedirectPath: redirect,
		Provider:     p,
	}
	challenge := ""
	if client.UsesPKCE() {
		pair, err := auth.GeneratePair()
		if err != nil {
			return nil, err
		}
		payload.CodeVerifier = pair.Verifier
		challenge = pair.Challenge
	}

	state, nonce, err := s.states.Create(payload)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOAuthConnect(p.String())
	return &ConnectResult{
		AuthURL: client.GetAuthURL(state, challenge),
		Nonce:   nonce,
	}, nil
}

// Disconnect revokes the user's provider tokens on a best-effort basis and
// deletes the connection.
func (s *ConnectionService) Disconnect(
	ctx context.Context,
	userID, providerName string,
) (*DisconnectResult, error) {
	p, ok := models.ParseProvider(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", auth.ErrUnsupportedProvider, providerName)
	}

	conn, err := s.store.GetConnectionByUserAndProvider(ctx, userID, p)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}

	revoked := s.revoke(ctx, conn)

	if err := s.store.DeleteConnection(ctx, conn.ID); err != nil {
		return nil, fmt.Errorf("failed to delete connection: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("provider", p.String()).
		Bool("token_revoked", revoked).
		Msg("provider disconnected")
	return &DisconnectResult{TokenRevoked: revoked}, nil
}

func (s *ConnectionService) revoke(ctx context.Context, conn *models.Connection) bool {
	logger := log.With().
		Str("connection_id", conn.ID).
		Str("provider", conn.Provider.String()).
		Logger()

	if conn.AccessToken == "" {
		return false
	}
	access, err := s.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		logger.Warn().Err(err).Msg("cannot decrypt token for revocation")
		return false
	}
	refresh, err := s.cipher.DecryptOptional(conn.RefreshToken)
	if err != nil {
		refresh = nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	revoked, err := s.revoker.Revoke(ctx, conn.Provider, access, refresh)
	s.metrics.RecordExternalAPICall(conn.Provider.String(), "token_revoke", time.Since(start))
	s.metrics.RecordTokenRevocation(conn.Provider.String(), revoked)
	if err != nil {
		logger.Warn().Err(err).Msg("token revocation failed")
	}
	return revoked
}
