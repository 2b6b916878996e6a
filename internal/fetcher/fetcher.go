// Package fetcher pulls recent activity from provider APIs and normalizes
// it into models.ProcessedActivity values.
package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/communitykit/activitysync/internal/models"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	ErrorUnauthorized ErrorKind = "unauthorized"
	ErrorRateLimited  ErrorKind = "rate_limited"
	ErrorNotFound     ErrorKind = "not_found"
	ErrorForbidden    ErrorKind = "forbidden"
	ErrorHTTP         ErrorKind = "http"
	ErrorNetwork      ErrorKind = "network"
)

const (
	DefaultMaxResults    = 50
	DefaultLookbackHours = 24
)

// Config bounds a single fetch.
type Config struct {
	MaxResults    int
	LookbackHours int
}

// DefaultConfig returns the standard fetch bounds.
func DefaultConfig() Config {
	return Config{MaxResults: DefaultMaxResults, LookbackHours: DefaultLookbackHours}
}

func (c Config) withDefaults() Config {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.LookbackHours <= 0 {
		c.LookbackHours = DefaultLookbackHours
	}
	return c
}

// cutoff is the oldest timestamp still inside the lookback window.
func (c Config) cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(c.LookbackHours) * time.Hour)
}

// RawActivity is a provider-shaped event from a single fetch. Metadata
// carries the fields needed to classify it.
type RawActivity struct {
	ID          string
	Timestamp   time.Time
	Title       string
	Description *string
	URL         *string
	Metadata    map[string]any
}

// Result is the outcome of FetchActivities. Ordinary HTTP failures are
// reported here instead of as Go errors.
type Result struct {
	Success    bool
	Activities []RawActivity
	Error      string
	ErrorKind  ErrorKind
}

// Fetcher reads and normalizes one provider's activity feed.
type Fetcher interface {
	Provider() models.Provider
	FetchActivities(ctx context.Context, accessToken, providerUserID string, cfg Config) *Result
	MapToProcessedActivity(raw RawActivity) models.ProcessedActivity
}

// Doer sends HTTP requests. *retry.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Registry maps providers to their fetchers.
type Registry map[models.Provider]Fetcher

// NewRegistry indexes fetchers by provider.
func NewRegistry(fetchers ...Fetcher) Registry {
	r := make(Registry, len(fetchers))
	for _, f := range fetchers {
		r[f.Provider()] = f
	}
	return r
}

// Get returns the fetcher registered for p.
func (r Registry) Get(p models.Provider) (Fetcher, bool) {
	f, ok := r[p]
	return f, ok
}

func success(activities []RawActivity) *Result {
	if activities == nil {
		activities = []RawActivity{}
	}
	return &Result{Success: true, Activities: activities}
}

func failure(kind ErrorKind, msg string) *Result {
	return &Result{Success: false, Error: msg, ErrorKind: kind}
}
