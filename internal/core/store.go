package core

import (
	"context"
	"time"

	"github.com/communitykit/activitysync/internal/models"
)

// ConnectionStore defines the persistence operations used by the sync
// pipeline and the OAuth connect/disconnect flows.
type ConnectionStore interface {
	// ListSyncableConnections returns every connection for a syncable
	// provider that holds a non-empty access token.
	ListSyncableConnections(ctx context.Context) ([]models.Connection, error)

	// InsertPendingActivities stages activities for userID as pending,
	// skipping any whose provider activity ID is already staged for that user.
	InsertPendingActivities(
		ctx context.Context,
		userID string,
		activities []models.ProcessedActivity,
	) (inserted, skipped int, err error)

	// UpdateConnectionTokens overwrites the (encrypted) tokens and expiry.
	UpdateConnectionTokens(
		ctx context.Context,
		id, accessToken string,
		refreshToken *string,
		expiresAt *time.Time,
	) error

	// UpsertConnection inserts or updates the connection keyed by (user, provider).
	UpsertConnection(ctx context.Context, conn *models.Connection) error

	GetConnectionByUserAndProvider(
		ctx context.Context,
		userID string,
		provider models.Provider,
	) (*models.Connection, error)

	DeleteConnection(ctx context.Context, id string) error

	// CountConnectionsByProvider returns connection counts keyed by provider.
	CountConnectionsByProvider(ctx context.Context) (map[models.Provider]int64, error)

	Health(ctx context.Context) error
}
