package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/communitykit/activitysync/internal/core"

	"github.com/rs/zerolog/log"
)

var (
	// ErrBatchInProgress is returned when a batch is requested while another
	// one is still running in this process.
	ErrBatchInProgress = errors.New("a sync batch is already running")

	// ErrListConnections wraps failures loading connections for a batch.
	ErrListConnections = errors.New("failed to list connections")
)

// BatchSummary totals one RunBatch call.
type BatchSummary struct {
	Total              int `json:"total"`
	Successful         int `json:"successful"`
	Failed             int `json:"failed"`
	ActivitiesFound    int `json:"activitiesFound"`
	ActivitiesInserted int `json:"activitiesInserted"`
	ActivitiesSkipped  int `json:"activitiesSkipped"`
	TokensRefreshed    int `json:"tokensRefreshed"`
}

// SyncRunner loads connections, syncs them and persists the outcome:
// refreshed tokens and newly staged activities.
type SyncRunner struct {
	store   core.ConnectionStore
	sync    *SyncService
	cipher  TokenCipher
	metrics core.Recorder

	running sync.Mutex
}

func NewSyncRunner(
	store core.ConnectionStore,
	syncService *SyncService,
	cipher TokenCipher,
	m core.Recorder,
) *SyncRunner {
	return &SyncRunner{
		store:   store,
		sync:    syncService,
		cipher:  cipher,
		metrics: m,
	}
}

// RunBatch syncs every syncable connection once. Per-connection failures
// are counted in the summary; only a failure to load connections is
// returned as an error.
func (r *SyncRunner) RunBatch(ctx context.Context) (*BatchSummary, error) {
	if !r.running.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer r.running.Unlock()

	start := time.Now()
	conns, err := r.store.ListSyncableConnections(ctx)
	if err != nil {
		r.metrics.RecordSyncBatch(false, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrListConnections, err)
	}

	summary := &BatchSummary{Total: len(conns)}
	if len(conns) == 0 {
		r.metrics.RecordSyncBatch(true, time.Since(start))
		return summary, nil
	}

	log.Info().Int("connections", len(conns)).Msg("sync batch started")

	for _, result := range r.sync.SyncAllConnections(ctx, conns) {
		r.apply(ctx, result, summary)
	}

	duration := time.Since(start)
	r.metrics.RecordSyncBatch(true, duration)
	log.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("activities_found", summary.ActivitiesFound).
		Int("activities_inserted", summary.ActivitiesInserted).
		Int("activities_skipped", summary.ActivitiesSkipped).
		Int("tokens_refreshed", summary.TokensRefreshed).
		Dur("duration", duration).
		Msg("sync batch finished")

	return summary, nil
}

// apply persists one result and folds it into summary.
func (r *SyncRunner) apply(ctx context.Context, result *SyncResult, summary *BatchSummary) {
	provider := result.Provider.String()
	logger := log.With().
		Str("connection_id", result.ConnectionID).
		Str("provider", provider).
		Logger()

	// Refreshed tokens are saved even when the fetch failed.
	if result.TokenRefreshed && result.NewTokens != nil {
		if err := r.persistTokens(ctx, result); err != nil {
			logger.Error().Err(err).Msg("failed to persist refreshed tokens")
		} else {
			summary.TokensRefreshed++
		}
	}

	if !result.Success {
		summary.Failed++
		r.metrics.RecordConnectionSync(provider, false)
		logger.Warn().Str("error", result.Error).Msg("connection sync failed")
		return
	}

	found := len(result.Activities)
	summary.ActivitiesFound += found

	inserted, skipped := 0, 0
	if found > 0 {
		var err error
		inserted, skipped, err = r.store.InsertPendingActivities(ctx, result.UserID, result.Activities)
		if err != nil {
			summary.Failed++
			r.metrics.RecordConnectionSync(provider, false)
			r.metrics.RecordActivities(provider, found, 0, 0)
			logger.Error().Err(err).Msg("failed to stage activities")
			return
		}
	}

	summary.Successful++
	summary.ActivitiesInserted += inserted
	summary.ActivitiesSkipped += skipped
	r.metrics.RecordConnectionSync(provider, true)
	r.metrics.RecordActivities(provider, found, inserted, skipped)
	logger.Debug().
		Int("found", found).
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("connection synced")
}

func (r *SyncRunner) persistTokens(ctx context.Context, result *SyncResult) error {
	access, err := r.cipher.Encrypt(result.NewTokens.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := r.cipher.EncryptOptional(result.NewTokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}
	return r.store.UpdateConnectionTokens(
		ctx,
		result.ConnectionID,
		access,
		refresh,
		result.NewTokens.ExpiresAt,
	)
}
