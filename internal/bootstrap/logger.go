package bootstrap

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/communitykit/activitysync/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogger configures the global zerolog logger and returns the level in
// effect. Unknown levels fall back to info.
func setupLogger(cfg *config.Config, out io.Writer) zerolog.Level {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat != config.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
	}
	return level
}
