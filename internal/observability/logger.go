package observability

import (
	"github.com/danmuck/rfctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger tags the process logger with app. The level and writer come
// from the logging package, configured on first use.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
