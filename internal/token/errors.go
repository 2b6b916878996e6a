package token

import "errors"

var (
	// ErrDecryptFailed indicates ciphertext could not be decoded or authenticated
	ErrDecryptFailed = errors.New("failed to decrypt token")

	// ErrMissingKey indicates strict mode was requested without an encryption key
	ErrMissingKey = errors.New("token encryption key is not configured")

	// ErrInvalidKeyLength indicates the encryption key is not 32 bytes
	ErrInvalidKeyLength = errors.New("token encryption key must be 32 bytes")

	// Refresh errors

	// ErrRefreshTokenInvalid indicates the provider rejected the refresh token
	ErrRefreshTokenInvalid = errors.New("refresh token invalid or expired")

	// ErrRefreshFailed indicates the token endpoint answered with an unexpected status
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoAccessToken indicates a successful response without an access token
	ErrNoAccessToken = errors.New("no access token in response")

	// ErrExpiredNoRefreshToken indicates the access token expired and cannot be renewed
	ErrExpiredNoRefreshToken = errors.New("access token expired and no refresh token available")

	// ErrRefreshNotSupported indicates the provider has no refresh endpoint
	ErrRefreshNotSupported = errors.New("provider does not support token refresh")
)
