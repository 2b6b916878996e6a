package store

import (
	"context"
	"errors"
	"time"

	"github.com/communitykit/activitysync/internal/core"
	"github.com/communitykit/activitysync/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ core.ConnectionStore = (*Store)(nil)

// ListSyncableConnections returns connections for syncable providers that
// still hold an access token, oldest first.
func (s *Store) ListSyncableConnections(ctx context.Context) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.db.WithContext(ctx).
		Where("provider IN ?", models.SyncableProviders).
		Where("access_token IS NOT NULL AND access_token <> ''").
		Order("created_at ASC").
		Find(&conns).Error
	return conns, err
}

// UpdateConnectionTokens overwrites the stored tokens and expiry.
func (s *Store) UpdateConnectionTokens(
	ctx context.Context,
	id, accessToken string,
	refreshToken *string,
	expiresAt *time.Time,
) error {
	result := s.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpsertConnection inserts conn or, when the user already has a connection
// for the provider, replaces its account and token fields. conn.ID is set
// to the stored row's ID.
func (s *Store) UpsertConnection(ctx context.Context, conn *models.Connection) error {
	if conn.UserID == "" || conn.Provider == "" || conn.ProviderUserID == "" {
		return ErrInvalidConnection
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Connection
		err := tx.Where("user_id = ? AND provider = ?", conn.UserID, conn.Provider).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if conn.ID == "" {
				conn.ID = uuid.New().String()
			}
			return tx.Create(conn).Error
		case err != nil:
			return err
		}

		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]any{
			"provider_user_id":  conn.ProviderUserID,
			"provider_username": conn.ProviderUsername,
			"access_token":      conn.AccessToken,
			"refresh_token":     conn.RefreshToken,
			"token_expires_at":  conn.TokenExpiresAt,
			"updated_at":        time.Now(),
		}).Error
	})
}

// GetConnectionByUserAndProvider finds a user's connection to provider.
func (s *Store) GetConnectionByUserAndProvider(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (*models.Connection, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// DeleteConnection deletes a connection by ID
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Connection{}, "id = ?", id).Error
}

// CountConnectionsByProvider groups connections by provider. Providers with
// no connections are reported as zero.
func (s *Store) CountConnectionsByProvider(ctx context.Context) (map[models.Provider]int64, error) {
	var rows []struct {
		Provider models.Provider
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Connection{}).
		Select("provider, COUNT(*) AS count").
		Group("provider").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Provider]int64, len(models.AllProviders))
	for _, p := range models.AllProviders {
		counts[p] = 0
	}
	for _, r := range rows {
		counts[r.Provider] = r.Count
	}
	return counts, nil
}
