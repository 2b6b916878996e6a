package metrics

import (
	"sync"
	"time"

	"github.com/communitykit/activitysync/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Sync Pipeline Metrics
	SyncBatchesTotal        *prometheus.CounterVec
	SyncBatchDuration       prometheus.Histogram
	ConnectionSyncsTotal    *prometheus.CounterVec
	ActivitiesFoundTotal    *prometheus.CounterVec
	ActivitiesInsertedTotal *prometheus.CounterVec
	ActivitiesSkippedTotal  *prometheus.CounterVec
	TokenRefreshesTotal     *prometheus.CounterVec

	// OAuth Connection Metrics
	OAuthConnectsTotal    *prometheus.CounterVec
	OAuthCallbacksTotal   *prometheus.CounterVec
	TokenRevocationsTotal *prometheus.CounterVec
	ExternalAPIDuration   *prometheus.HistogramVec
	ConnectionsActive     *prometheus.GaugeVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		// Sync Pipeline Metrics
		SyncBatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_batches_total",
				Help: "Total number of sync batches run",
			},
			[]string{"result"}, // success, error
		),
		SyncBatchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "activity_sync_batch_duration_seconds",
				Help: "Time taken to sync every connection in a batch",
				Buckets: []float64{
					1,
					5,
					15,
					30,
					60,
					120,
					300,
					600,
				},
			},
		),
		ConnectionSyncsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_connections_total",
				Help: "Total number of connection syncs",
			},
			[]string{"provider", "result"},
		),
		ActivitiesFoundTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_activities_found_total",
				Help: "Total number of activities returned by providers",
			},
			[]string{"provider"},
		),
		ActivitiesInsertedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_activities_inserted_total",
				Help: "Total number of activities staged for review",
			},
			[]string{"provider"},
		),
		ActivitiesSkippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_activities_skipped_total",
				Help: "Total number of activities skipped as already staged",
			},
			[]string{"provider"},
		),
		TokenRefreshesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_token_refreshes_total",
				Help: "Total number of provider token refresh attempts",
			},
			[]string{"provider", "result"},
		),

		// OAuth Connection Metrics
		OAuthConnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_connect_started_total",
				Help: "Total number of provider connect flows started",
			},
			[]string{"provider"},
		),
		OAuthCallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_callbacks_total",
				Help: "Total number of provider OAuth callbacks",
			},
			[]string{"provider", "result", "code"},
		),
		TokenRevocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_token_revocations_total",
				Help: "Total number of provider token revocations on disconnect",
			},
			[]string{"provider", "result"}, // revoked, failed
		),
		ExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_api_duration_seconds",
				Help:    "Latency of calls to provider APIs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		ConnectionsActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "provider_connections_active",
				Help: "Current number of stored provider connections",
			},
			[]string{"provider"},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		// Database Query Metrics
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_connections
		),
	}

	return m
}

func resultLabel(success bool) string {
	if success {
		return resultSuccess
	}
	return resultError
}

// RecordSyncBatch records one completed or failed batch
func (m *Metrics) RecordSyncBatch(success bool, duration time.Duration) {
	m.SyncBatchesTotal.WithLabelValues(resultLabel(success)).Inc()
	m.SyncBatchDuration.Observe(duration.Seconds())
}

// RecordConnectionSync records the outcome of syncing one connection
func (m *Metrics) RecordConnectionSync(provider string, success bool) {
	m.ConnectionSyncsTotal.WithLabelValues(provider, resultLabel(success)).Inc()
}

// RecordActivities records fetched and staged activity counts
func (m *Metrics) RecordActivities(provider string, found, inserted, skipped int) {
	m.ActivitiesFoundTotal.WithLabelValues(provider).Add(float64(found))
	m.ActivitiesInsertedTotal.WithLabelValues(provider).Add(float64(inserted))
	m.ActivitiesSkippedTotal.WithLabelValues(provider).Add(float64(skipped))
}

// RecordTokenRefresh records token refresh attempt
func (m *Metrics) RecordTokenRefresh(provider string, success bool) {
	m.TokenRefreshesTotal.WithLabelValues(provider, resultLabel(success)).Inc()
}

// RecordOAuthConnect records the start of a connect flow
func (m *Metrics) RecordOAuthConnect(provider string) {
	m.OAuthConnectsTotal.WithLabelValues(provider).Inc()
}

// RecordOAuthCallback records OAuth callback
func (m *Metrics) RecordOAuthCallback(provider string, success bool, errorCode string) {
	if success {
		errorCode = "none"
	}
	m.OAuthCallbacksTotal.WithLabelValues(provider, resultLabel(success), errorCode).Inc()
}

// RecordTokenRevocation records a revocation attempt on disconnect
func (m *Metrics) RecordTokenRevocation(provider string, revoked bool) {
	result := "revoked"
	if !revoked {
		result = resultFailure
	}
	m.TokenRevocationsTotal.WithLabelValues(provider, result).Inc()
}

// RecordExternalAPICall records external API call duration
func (m *Metrics) RecordExternalAPICall(provider, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// SetConnectionsCount sets the current count of connections (for periodic updates)
func (m *Metrics) SetConnectionsCount(provider string, count int64) {
	m.ConnectionsActive.WithLabelValues(provider).Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}

// String formats the metrics for logging
func (m *Metrics) String() string {
	return "Metrics{Sync: enabled, OAuth: enabled, HTTP: enabled}"
}
