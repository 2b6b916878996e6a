package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/token"
	"github.com/communitykit/activitysync/internal/util"
)

const (
	// StateTTL bounds how long an authorization redirect stays valid.
	StateTTL = 5 * time.Minute

	// CSRFCookieName holds the nonce for the double-submit check.
	CSRFCookieName = "oauth_csrf"
	// CSRFCookiePath scopes the cookie to the auth endpoints.
	CSRFCookiePath = "/api/auth"

	nonceBytes = 32
)

// StatePayload travels inside the signed state parameter.
type StatePayload struct {
	UserID       string          `json:"userId"`
	RedirectPath string          `json:"redirectPath"`
	Provider     models.Provider `json:"provider"`
	Nonce        string          `json:"nonce"`
	ExpiresAt    int64           `json:"expiresAt"` // unix milliseconds
	CodeVerifier string          `json:"codeVerifier,omitempty"`
}

// Expired reports whether the payload is past its expiry at now.
func (p *StatePayload) Expired(now time.Time) bool {
	return now.UnixMilli() > p.ExpiresAt
}

// StateCodec signs and verifies OAuth state tokens of the form
// base64url(json).hex(hmac).
type StateCodec struct {
	signer *token.Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewStateCodec creates a codec signing with secret.
func NewStateCodec(secret []byte) *StateCodec {
	return &StateCodec{
		signer: token.NewSigner(secret),
		ttl:    StateTTL,
		now:    time.Now,
	}
}

// TTL returns how long issued states remain valid.
func (c *StateCodec) TTL() time.Duration {
	return c.ttl
}

// Create stamps payload with a fresh nonce and expiry and returns the
// signed state together with the nonce for the CSRF cookie.
func (c *StateCodec) Create(payload StatePayload) (string, string, error) {
	raw, err := util.CryptoRandomBytes(nonceBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	payload.Nonce = hex.EncodeToString(raw)
	payload.ExpiresAt = c.now().Add(c.ttl).UnixMilli()

	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode state: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + c.signer.Sign(string(data)), payload.Nonce, nil
}

// Parse verifies the signature and expiry of state and returns its payload.
func (c *StateCodec) Parse(state string) (*StatePayload, error) {
	idx := strings.LastIndex(state, ".")
	if idx <= 0 || idx == len(state)-1 {
		return nil, ErrInvalidState
	}
	encoded, signature := state[:idx], state[idx+1:]

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !c.signer.Verify(string(data), signature) {
		return nil, ErrInvalidState
	}

	var payload StatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if payload.Expired(c.now()) {
		return nil, ErrStateExpired
	}
	return &payload, nil
}

// ValidateNonce compares the cookie nonce with the state nonce in constant
// time. A missing cookie never matches.
func ValidateNonce(cookieNonce, stateNonce string) bool {
	if cookieNonce == "" || stateNonce == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieNonce), []byte(stateNonce)) == 1
}
