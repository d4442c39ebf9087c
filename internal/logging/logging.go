package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "AGPS_LOG_LEVEL"
	EnvLogTimestamp = "AGPS_LOG_TIMESTAMP"
	EnvLogNoColor   = "AGPS_LOG_NOCOLOR"
)

// Config is logger configuration
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// DefaultConfig returns configuration for interactive use: info level, no timestamps.
func DefaultConfig() Config {
	return Config{
		Level: zerolog.InfoLevel,
	}
}

// New creates console logger writing to w. Configuration is overridden from environment variables.
func New(w io.Writer) zerolog.Logger {
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)
	return NewWithConfig(w, cfg)
}

// NewWithConfig creates console logger writing to w
func NewWithConfig(w io.Writer, cfg Config) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	logger := zerolog.New(cw).Level(cfg.Level)
	if cfg.Timestamp {
		logger = logger.With().Timestamp().Logger()
	}
	return logger
}

// WithDebug lowers logger level to debug unless it is already more verbose
func WithDebug(logger zerolog.Logger) zerolog.Logger {
	if logger.GetLevel() > zerolog.DebugLevel {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger
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
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
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
