package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// UnmarshalText implements encoding.TextUnmarshaler for LogFormat.
func (f *LogFormat) UnmarshalText(text []byte) error {
	switch v := LogFormat(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case LogFormatJSON, LogFormatText:
		*f = v
		return nil
	case "":
		*f = LogFormatJSON
		return nil
	default:
		return fmt.Errorf("invalid LogFormat: %q (valid options: json, text)", string(text))
	}
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty means info, or debug in development.
	Level  string    `env:"LOG_LEVEL"  envDefault:""`
	Format LogFormat `env:"LOG_FORMAT" envDefault:"json"`
}

// SlogLevel resolves Level, falling back when it is empty or unknown.
func (c LogConfig) SlogLevel(isDev bool) slog.Level {
	var lvl slog.Level
	if c.Level != "" && lvl.UnmarshalText([]byte(c.Level)) == nil {
		return lvl
	}
	if isDev {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
