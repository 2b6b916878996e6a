package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Sync pipeline
	RecordSyncBatch(success bool, duration time.Duration)
	RecordConnectionSync(provider string, success bool)
	RecordActivities(provider string, found, inserted, skipped int)
	RecordTokenRefresh(provider string, success bool)

	// OAuth flows
	RecordOAuthConnect(provider string)
	RecordOAuthCallback(provider string, success bool, errorCode string)
	RecordTokenRevocation(provider string, revoked bool)
	RecordExternalAPICall(provider, operation string, duration time.Duration)

	// Gauge Setters (for periodic updates)
	SetConnectionsCount(provider string, count int64)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
