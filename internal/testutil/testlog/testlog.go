package testlog

import (
	"testing"

	"github.com/danmuck/rfctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("start")
}

// Logger returns the configured test logger for components taking one at
// construction.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	return log.Logger.With().Str("test", t.Name()).Logger()
}

func Logf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
