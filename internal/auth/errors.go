package auth

import "errors"

var (
	// ErrInvalidState indicates a malformed or badly signed OAuth state
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrStateExpired indicates the OAuth state outlived its TTL
	ErrStateExpired = errors.New("oauth state expired")

	// ErrProviderNotConfigured indicates missing client credentials for a provider
	ErrProviderNotConfigured = errors.New("oauth provider not configured")

	// ErrUnsupportedProvider indicates an unknown provider name
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrUserInfo indicates the provider identity endpoint could not be read
	ErrUserInfo = errors.New("failed to fetch provider user info")

	// ErrRevocationFailed indicates the provider rejected a revocation request
	ErrRevocationFailed = errors.New("token revocation failed")
)
