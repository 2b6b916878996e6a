package metrics

import (
	"strconv"
	"time"

	"github.com/communitykit/activitysync/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// unmatchedRoute labels requests that hit no registered route so that
// arbitrary scanner paths cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// Scrapes and liveness checks would dominate the request series.
var unrecordedPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

// HTTPMetricsMiddleware records request count, latency and in-flight
// requests per route. It is a pass-through for any recorder other than *Metrics.
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	pm, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if _, skip := unrecordedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		pm.HTTPRequestsInFlight.Inc()
		defer pm.HTTPRequestsInFlight.Dec()

		c.Next()

		route := routeLabel(c.FullPath())
		pm.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Inc()
		pm.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// routeLabel returns the gin route pattern, e.g. "/api/auth/callback/:provider".
func routeLabel(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}
