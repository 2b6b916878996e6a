package bootstrap

import (
	"fmt"

	"github.com/communitykit/activitysync/internal/config"

	"github.com/rs/zerolog/log"
)

// validateAllConfiguration fails on invalid settings and logs development
// warnings.
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}
	return nil
}
