package models

import (
	"time"
)

// Connection links one application user to one provider account.
// Tokens are stored encrypted.
type Connection struct {
	ID               string   `gorm:"primaryKey"`
	UserID           string   `gorm:"not null;uniqueIndex:idx_connection_user_provider,priority:1"`
	Provider         Provider `gorm:"not null;uniqueIndex:idx_connection_user_provider,priority:2;index"`
	ProviderUserID   string   `gorm:"not null"`
	ProviderUsername *string

	// Token storage (encrypted at rest)
	AccessToken    string  `gorm:"type:text"`
	RefreshToken   *string `gorm:"type:text"`
	TokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by Connection to `connections`
func (Connection) TableName() string {
	return "connections"
}
