package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var revokeCredentials = map[models.Provider]token.ClientCredentials{
	models.ProviderGitHub:   {ClientID: "gh-id", ClientSecret: "gh-secret"},
	models.ProviderTwitter:  {ClientID: "tw-id", ClientSecret: "tw-secret"},
	models.ProviderLinkedIn: {ClientID: "li-id", ClientSecret: "li-secret"},
	models.ProviderDiscord:  {ClientID: "dc-id", ClientSecret: "dc-secret"},
}

func TestRevoke_GitHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/applications/gh-id/token", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "gh-id", user)
		assert.Equal(t, "gh-secret", pass)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gho_token", body["access_token"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := NewRevoker(srv.Client(), revokeCredentials, map[models.Provider]string{
		models.ProviderGitHub: srv.URL + "/applications/{client_id}/token",
	})
	revoked, err := r.Revoke(context.Background(), models.ProviderGitHub, "gho_token", nil)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevoke_TwitterRevokesBothTokens(t *testing.T) {
	var mu sync.Mutex
	hints := []string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "tw-id", r.PostForm.Get("client_id"))

		mu.Lock()
		hints = append(hints, r.PostForm.Get("token_type_hint")+":"+r.PostForm.Get("token"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"revoked":true}`))
	}))
	defer srv.Close()

	r := NewRevoker(srv.Client(), revokeCredentials, map[models.Provider]string{
		models.ProviderTwitter: srv.URL,
	})
	rt := "refresh"
	revoked, err := r.Revoke(context.Background(), models.ProviderTwitter, "access", &rt)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, []string{"access_token:access", "refresh_token:refresh"}, hints)
}

func TestRevoke_FormWithSecret(t *testing.T) {
	for _, p := range []models.Provider{models.ProviderLinkedIn, models.ProviderDiscord} {
		t.Run(string(p), func(t *testing.T) {
			creds := revokeCredentials[p]
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "tok", r.PostForm.Get("token"))
				assert.Equal(t, creds.ClientID, r.PostForm.Get("client_id"))
				assert.Equal(t, creds.ClientSecret, r.PostForm.Get("client_secret"))
			}))
			defer srv.Close()

			r := NewRevoker(srv.Client(), revokeCredentials, map[models.Provider]string{p: srv.URL})
			revoked, err := r.Revoke(context.Background(), p, "tok", nil)
			require.NoError(t, err)
			assert.True(t, revoked)
		})
	}
}

func TestRevoke_StatusHandling(t *testing.T) {
	tests := []struct {
		status      int
		wantRevoked bool
		wantErr     bool
	}{
		{http.StatusOK, true, false},
		{http.StatusBadRequest, true, false},
		{http.StatusUnauthorized, true, false},
		{http.StatusInternalServerError, false, true},
		{http.StatusForbidden, false, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			r := NewRevoker(srv.Client(), revokeCredentials, map[models.Provider]string{
				models.ProviderDiscord: srv.URL,
			})
			revoked, err := r.Revoke(context.Background(), models.ProviderDiscord, "tok", nil)
			assert.Equal(t, tt.wantRevoked, revoked)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRevocationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRevoke_NotConfigured(t *testing.T) {
	r := NewRevoker(nil, map[models.Provider]token.ClientCredentials{}, nil)
	_, err := r.Revoke(context.Background(), models.ProviderGitHub, "tok", nil)
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}
