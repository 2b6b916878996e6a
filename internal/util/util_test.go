package util

import (
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	b1, err := CryptoRandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b1, 32)

	b2, err := CryptoRandomBytes(32)
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}

func TestRandomURLSafe(t *testing.T) {
	s, err := RandomURLSafe(32)
	require.NoError(t, err)
	assert.Len(t, s, 43)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+$`), s)
}

func TestDecodeKey(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"hex", hex.EncodeToString(raw), 32, false},
		{"std base64", base64.StdEncoding.EncodeToString(raw), 32, false},
		{"raw url base64", base64.RawURLEncoding.EncodeToString(raw), 32, false},
		{"short base64", base64.StdEncoding.EncodeToString(raw[:16]), 16, false},
		{"empty", "", 0, true},
		{"garbage", "not a key!!", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKey(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKeyEncoding)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestIsSafeRedirectPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/settings", true},
		{"/settings/connections?tab=github", true},
		{"", false},
		{"settings", false},
		{"//evil.com", false},
		{"/\\evil.com", false},
		{"https://evil.com/settings", false},
		{"javascript:alert(1)", false},
		{"/settings\r\nSet-Cookie: x=y", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeRedirectPath(tt.path))
		})
	}
}

func TestAppendQuery(t *testing.T) {
	got := AppendQuery("/settings?tab=connections", "oauth", "success", "provider", "github")

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/settings", u.Path)
	assert.Equal(t, "connections", u.Query().Get("tab"))
	assert.Equal(t, "success", u.Query().Get("oauth"))
	assert.Equal(t, "github", u.Query().Get("provider"))
}

func TestAppendQuery_OrderAndEscaping(t *testing.T) {
	got := AppendQuery("/settings", "oauth", "error", "code", "csrf_mismatch", "message", "a b&c")
	assert.Equal(t, "/settings?oauth=error&code=csrf_mismatch&message=a+b%26c", got)

	assert.Equal(t, "/p?x=1#frag", AppendQuery("/p#frag", "x", "1"))
	assert.Equal(t, "/p?x=1", AppendQuery("/p?", "x", "1"))
	assert.Equal(t, "/p", AppendQuery("/p"))
}
