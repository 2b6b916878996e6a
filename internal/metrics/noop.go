package metrics

import (
	"time"

	"github.com/communitykit/activitysync/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

// Sync pipeline - noop implementations
func (n *NoopMetrics) RecordSyncBatch(success bool, duration time.Duration)           {}
func (n *NoopMetrics) RecordConnectionSync(provider string, success bool)             {}
func (n *NoopMetrics) RecordActivities(provider string, found, inserted, skipped int) {}
func (n *NoopMetrics) RecordTokenRefresh(provider string, success bool)               {}

// OAuth flows - noop implementations
func (n *NoopMetrics) RecordOAuthConnect(provider string) {}

func (n *NoopMetrics) RecordOAuthCallback(
	provider string,
	success bool,
	errorCode string,
) {
}

func (n *NoopMetrics) RecordTokenRevocation(provider string, revoked bool) {}

func (n *NoopMetrics) RecordExternalAPICall(
	provider, operation string,
	duration time.Duration,
) {
}

// Gauge Setters - noop implementations
func (n *NoopMetrics) SetConnectionsCount(provider string, count int64) {}

// Database Operations - noop implementations
func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
