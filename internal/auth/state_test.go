package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/communitykit/activitysync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *StateCodec {
	return NewStateCodec([]byte("test-state-secret"))
}

func TestStateCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec()
	before := time.Now()

	state, nonce, err := codec.Create(StatePayload{
		UserID:       "user-1",
		RedirectPath: "/settings",
		Provider:     models.ProviderTwitter,
		CodeVerifier: "verifier",
	})
	require.NoError(t, err)
	assert.Len(t, nonce, 64)
	assert.Equal(t, 1, strings.Count(state, "."))

	payload, err := codec.Parse(state)
	require.NoError(t, err)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, "/settings", payload.RedirectPath)
	assert.Equal(t, models.ProviderTwitter, payload.Provider)
	assert.Equal(t, nonce, payload.Nonce)
	assert.Equal(t, "verifier", payload.CodeVerifier)
	assert.InDelta(t, before.Add(StateTTL).UnixMilli(), payload.ExpiresAt, 2000)
}

func TestStateCodec_FreshNoncePerCall(t *testing.T) {
	codec := newTestCodec()
	p := StatePayload{UserID: "u", Provider: models.ProviderGitHub}

	_, n1, err := codec.Create(p)
	require.NoError(t, err)
	_, n2, err := codec.Create(p)
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)
}

func TestStateCodec_Expired(t *testing.T) {
	codec := newTestCodec()
	state, _, err := codec.Create(StatePayload{UserID: "u", Provider: models.ProviderGitHub})
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(StateTTL + time.Second) }
	_, err = codec.Parse(state)
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestStateCodec_Tampered(t *testing.T) {
	codec := newTestCodec()
	state, _, err := codec.Create(StatePayload{UserID: "user-1", Provider: models.ProviderGitHub})
	require.NoError(t, err)

	idx := strings.LastIndex(state, ".")
	data, err := base64.RawURLEncoding.DecodeString(state[:idx])
	require.NoError(t, err)

	var payload StatePayload
	require.NoError(t, json.Unmarshal(data, &payload))
	payload.UserID = "attacker"
	forged, err := json.Marshal(payload)
	require.NoError(t, err)

	tests := map[string]string{
		"payload swapped":  base64.RawURLEncoding.EncodeToString(forged) + state[idx:],
		"signature edited": state[:len(state)-1] + "0",
		"no separator":     strings.ReplaceAll(state, ".", ""),
		"empty signature":  state[:idx+1],
		"empty":            "",
		"not base64":       "%%%." + state[idx+1:],
	}
	if strings.HasSuffix(state, "0") {
		tests["signature edited"] = state[:len(state)-1] + "1"
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Parse(input)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestStateCodec_OtherSecret(t *testing.T) {
	state, _, err := newTestCodec().Create(StatePayload{UserID: "u", Provider: models.ProviderGitHub})
	require.NoError(t, err)

	_, err = NewStateCodec([]byte("different")).Parse(state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestValidateNonce(t *testing.T) {
	assert.True(t, ValidateNonce("abc", "abc"))
	assert.False(t, ValidateNonce("abc", "abd"))
	assert.False(t, ValidateNonce("", "abc"))
	assert.False(t, ValidateNonce("abc", ""))
	assert.False(t, ValidateNonce("", ""))
}
