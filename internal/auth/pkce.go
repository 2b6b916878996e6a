package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/communitykit/activitysync/internal/util"
)

// verifierBytes yields a 43 character base64url verifier (RFC 7636 allows 43-128).
const verifierBytes = 32

// PKCEPair is a code verifier and its S256 challenge.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GenerateVerifier returns a fresh random code verifier.
func GenerateVerifier() (string, error) {
	return util.RandomURLSafe(verifierBytes)
}

// GenerateChallenge derives the S256 code challenge for verifier.
func GenerateChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GeneratePair returns a new verifier with its challenge.
func GeneratePair() (PKCEPair, error) {
	v, err := GenerateVerifier()
	if err != nil {
		return PKCEPair{}, err
	}
	return PKCEPair{Verifier: v, Challenge: GenerateChallenge(v)}, nil
}
