package token

import "time"

// Pair is the decrypted view of a connection's credentials.
// It is never persisted directly.
type Pair struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken *string    `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// ExpiryFromSeconds converts an OAuth expires_in value into an absolute
// instant. Zero or negative values mean no expiry.
func ExpiryFromSeconds(now time.Time, expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(expiresIn) * time.Second)
	return &t
}
