package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const (
	testToken = "test-secret-token-123"
)

func newBearerRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/protected", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func serveWithAuth(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestMetricsAuthMiddleware_NoAuthConfigured(t *testing.T) {
	r := newBearerRouter(MetricsAuthMiddleware(""))

	w := serveWithAuth(r, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestSyncAuthMiddleware_NoKeyConfigured(t *testing.T) {
	r := newBearerRouter(SyncAuthMiddleware(""))

	w := serveWithAuth(r, "Bearer anything")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Endpoint is not configured")
	assert.Equal(t, `Bearer realm="Sync"`, w.Header().Get("WWW-Authenticate"))
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name          string
		middleware    gin.HandlerFunc
		authorization string
		wantCode      int
		wantBody      string
		wantRealm     string
	}{
		{
			name:          "metrics valid token",
			middleware:    MetricsAuthMiddleware(testToken),
			authorization: "Bearer " + testToken,
			wantCode:      http.StatusOK,
			wantBody:      "ok",
		},
		{
			name:          "metrics wrong token",
			middleware:    MetricsAuthMiddleware(testToken),
			authorization: "Bearer wrong-token",
			wantCode:      http.StatusUnauthorized,
			wantBody:      "Invalid token",
			wantRealm:     `Bearer realm="Metrics"`,
		},
		{
			name:       "metrics missing header",
			middleware: MetricsAuthMiddleware(testToken),
			wantCode:   http.StatusUnauthorized,
			wantBody:   "Bearer token required",
			wantRealm:  `Bearer realm="Metrics"`,
		},
		{
			name:          "sync valid key",
			middleware:    SyncAuthMiddleware(testToken),
			authorization: "Bearer " + testToken,
			wantCode:      http.StatusOK,
			wantBody:      "ok",
		},
		{
			name:          "sync basic scheme",
			middleware:    SyncAuthMiddleware(testToken),
			authorization: "Basic dGVzdDp0ZXN0",
			wantCode:      http.StatusUnauthorized,
			wantBody:      "Bearer token required",
			wantRealm:     `Bearer realm="Sync"`,
		},
		{
			name:          "sync empty bearer",
			middleware:    SyncAuthMiddleware(testToken),
			authorization: "Bearer ",
			wantCode:      http.StatusUnauthorized,
			wantBody:      "Invalid token",
			wantRealm:     `Bearer realm="Sync"`,
		},
		{
			name:          "sync key prefix only",
			middleware:    SyncAuthMiddleware(testToken),
			authorization: "Bearer test-secret",
			wantCode:      http.StatusUnauthorized,
			wantBody:      "Invalid token",
			wantRealm:     `Bearer realm="Sync"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBearerRouter(tt.middleware)

			w := serveWithAuth(r, tt.authorization)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, tt.wantRealm, w.Header().Get("WWW-Authenticate"))
		})
	}
}
