package bootstrap

import (
	"context"
	"fmt"

	"github.com/communitykit/activitysync/internal/config"
	"github.com/communitykit/activitysync/internal/store"

	"github.com/rs/zerolog/log"
)

// initializeDatabase opens the store and verifies it answers within
// DBInitTimeout.
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()
	if err := db.Health(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}

	log.Info().Str("driver", cfg.DatabaseDriver).Msg("database initialized")
	return db, nil
}
