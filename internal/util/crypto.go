package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidKeyEncoding is returned when a key is neither base64 nor hex.
var ErrInvalidKeyEncoding = errors.New("key is neither base64 nor hex encoded")

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// RandomURLSafe returns n random bytes encoded as unpadded base64url.
func RandomURLSafe(n int) (string, error) {
	b, err := CryptoRandomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeKey decodes a secret given either as 64 hex characters or as
// base64 (standard or URL alphabet, padded or not).
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKeyEncoding
	}
	if len(s) == 64 {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, ErrInvalidKeyEncoding
}
