package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "RFCTL_LOG_LEVEL"
	EnvLogTimestamp = "RFCTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "RFCTL_LOG_NOCOLOR"
	EnvLogBypass    = "RFCTL_LOG_BYPASS"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Bypass    bool
	Out       io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime, 0)
}

func ConfigureTests() {
	Configure(ProfileTest, 0)
}

// ConfigureVerbosity maps the repeatable -v flag onto a level: one step
// enables debug output, two or more enable trace.
func ConfigureVerbosity(verbosity int) {
	Configure(ProfileRuntime, verbosity)
}

func Configure(profile Profile, verbosity int) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		if verbosity > 0 {
			cfg.Level = LevelForVerbosity(verbosity)
		}
		applyEnvOverrides(&cfg)
		apply(cfg)
	})
}

// LevelForVerbosity returns the level ConfigureVerbosity would select.
func LevelForVerbosity(verbosity int) zerolog.Level {
	switch {
	case verbosity >= 2:
		return zerolog.TraceLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func defaultConfig(profile Profile) Config {
	cfg := Config{Out: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

func apply(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.Bypass {
		log.Logger = zerolog.New(cfg.Out).Level(cfg.Level)
		if cfg.Timestamp {
			log.Logger = log.Logger.With().Timestamp().Logger()
		}
		return
	}
	output := zerolog.ConsoleWriter{
		Out:        cfg.Out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	log.Logger = ctx.Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		cfg.Bypass = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
