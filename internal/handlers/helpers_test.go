package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/cache"
	"github.com/communitykit/activitysync/internal/metrics"
	"github.com/communitykit/activitysync/internal/middleware"
	"github.com/communitykit/activitysync/internal/mocks"
	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"
	"github.com/communitykit/activitysync/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"
)

const testUserHeader = "X-Test-User"

// stubOAuthClient answers the provider side of the flow without HTTP.
type stubOAuthClient struct {
	provider models.Provider
	pkce     bool
}

func (s *stubOAuthClient) Provider() models.Provider { return s.provider }
func (s *stubOAuthClient) UsesPKCE() bool            { return s.pkce }

func (s *stubOAuthClient) GetAuthURL(state, challenge string) string {
	return "https://provider.example/authorize?state=" + state + "&code_challenge=" + challenge
}

func (s *stubOAuthClient) ExchangeCode(context.Context, string, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "provider-access"}, nil
}

func (s *stubOAuthClient) GetUserInfo(context.Context, string) (*auth.OAuthUserInfo, error) {
	return &auth.OAuthUserInfo{ProviderUserID: "42", Username: "octocat"}, nil
}

type stubRevoker struct{ revoked bool }

func (s *stubRevoker) Revoke(context.Context, models.Provider, string, *string) (bool, error) {
	return s.revoked, nil
}

type oauthFixture struct {
	router *gin.Engine
	store  *mocks.MockConnectionStore
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	st := mocks.NewMockConnectionStore(ctrl)
	cipher, err := token.NewSafeCipher(nil, token.CipherModePermissive)
	require.NoError(t, err)

	states := auth.NewStateCodec([]byte("handler-test-secret"))
	clients := services.NewOAuthClients(&stubOAuthClient{provider: models.ProviderGitHub})
	m := metrics.NewNoopMetrics()

	connections := services.NewConnectionService(st, clients, states, cipher, &stubRevoker{revoked: true}, m, time.Second)
	callbacks := services.NewCallbackService(st, clients, states, cipher, cache.NewMemoryCache[bool](), m, time.Second)
	h := NewOAuthHandler(connections, callbacks, true)

	r := gin.New()
	r.Use(sessions.Sessions("app_session", cookie.NewStore([]byte("session-secret"))))
	// Stands in for the host application's login.
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader(testUserHeader); user != "" {
			sessions.Default(c).Set(middleware.SessionUserID, user)
		}
		c.Next()
	})

	api := r.Group("/api/auth")
	api.GET("/connect", middleware.RequireUser(), h.Connect)
	api.GET("/callback/:provider", h.Callback)
	api.POST("/disconnect", middleware.RequireUser(), h.Disconnect)

	return &oauthFixture{router: r, store: st}
}

func (f *oauthFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
