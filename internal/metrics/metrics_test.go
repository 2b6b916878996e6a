package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	m := Init(true)
	assert.NotNil(t, m)

	// Type assert to concrete Metrics to access fields
	metrics, ok := m.(*Metrics)
	assert.True(t, ok, "Init(true) should return *Metrics")
	assert.NotNil(t, metrics.SyncBatchesTotal)
	assert.NotNil(t, metrics.ConnectionSyncsTotal)
	assert.NotNil(t, metrics.OAuthCallbacksTotal)
	assert.NotNil(t, metrics.HTTPRequestsTotal)

	assert.Same(t, metrics, Init(true), "Init should register metrics once")
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	assert.NotNil(t, m)

	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")
}

func TestRecordSyncMetrics(t *testing.T) {
	m := Init(true).(*Metrics)

	before := testutil.ToFloat64(m.ConnectionSyncsTotal.WithLabelValues("github", resultSuccess))
	m.RecordConnectionSync("github", true)
	assert.Equal(t, before+1, testutil.ToFloat64(m.ConnectionSyncsTotal.WithLabelValues("github", resultSuccess)))

	found := testutil.ToFloat64(m.ActivitiesFoundTotal.WithLabelValues("twitter"))
	inserted := testutil.ToFloat64(m.ActivitiesInsertedTotal.WithLabelValues("twitter"))
	skipped := testutil.ToFloat64(m.ActivitiesSkippedTotal.WithLabelValues("twitter"))
	m.RecordActivities("twitter", 5, 3, 2)
	assert.Equal(t, found+5, testutil.ToFloat64(m.ActivitiesFoundTotal.WithLabelValues("twitter")))
	assert.Equal(t, inserted+3, testutil.ToFloat64(m.ActivitiesInsertedTotal.WithLabelValues("twitter")))
	assert.Equal(t, skipped+2, testutil.ToFloat64(m.ActivitiesSkippedTotal.WithLabelValues("twitter")))

	m.RecordSyncBatch(true, 3*time.Second)
	m.RecordTokenRefresh("twitter", false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.TokenRefreshesTotal.WithLabelValues("twitter", resultError)), 1.0)
}

func TestRecordOAuthMetrics(t *testing.T) {
	m := Init(true).(*Metrics)

	m.RecordOAuthConnect("linkedin")
	m.RecordOAuthCallback("linkedin", true, "")
	m.RecordOAuthCallback("linkedin", false, "csrf_mismatch")
	m.RecordTokenRevocation("linkedin", true)
	m.RecordTokenRevocation("linkedin", false)
	m.RecordExternalAPICall("linkedin", "token_exchange", 120*time.Millisecond)

	assert.GreaterOrEqual(t,
		testutil.ToFloat64(m.OAuthCallbacksTotal.WithLabelValues("linkedin", resultSuccess, "none")), 1.0)
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(m.OAuthCallbacksTotal.WithLabelValues("linkedin", resultError, "csrf_mismatch")), 1.0)
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(m.TokenRevocationsTotal.WithLabelValues("linkedin", resultFailure)), 1.0)
}

func TestSetConnectionsCount(t *testing.T) {
	m := Init(true).(*Metrics)

	m.SetConnectionsCount("discord", 9)
	assert.Equal(t, 9.0, testutil.ToFloat64(m.ConnectionsActive.WithLabelValues("discord")))
}

func TestNoopMetricsDoNothing(t *testing.T) {
	m := NewNoopMetrics()
	m.RecordSyncBatch(false, time.Second)
	m.RecordConnectionSync("github", false)
	m.RecordActivities("github", 1, 1, 0)
	m.RecordTokenRefresh("twitter", true)
	m.RecordOAuthConnect("github")
	m.RecordOAuthCallback("github", false, "unknown")
	m.RecordTokenRevocation("github", true)
	m.RecordExternalAPICall("github", "user_info", time.Millisecond)
	m.SetConnectionsCount("github", 1)
	m.RecordDatabaseQueryError("count_connections")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := Init(true).(*Metrics)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.GET("/api/sync/activities", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/sync/activities", "200"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/activities", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1,
		testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/sync/activities", "200")))

	for _, path := range []string{"/metrics", "/health"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", path, "200")), path)
	}

	before = testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")))
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name     string
		fullPath string
		expected string
	}{
		{"unmatched", "", "unmatched"},
		{"root path", "/", "/"},
		{"health check", "/health", "/health"},
		{"callback", "/api/auth/callback/:provider", "/api/auth/callback/:provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, routeLabel(tt.fullPath))
		})
	}
}
