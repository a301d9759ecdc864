package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/i474232898/weather-sync/internal/config"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the application logger. format overrides the environment
// default (text in dev, JSON elsewhere); pass "" to keep it.
func New(w io.Writer, cfg *config.AppConfig, format, appName string) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = FormatJSON
		if cfg.Dev() {
			format = FormatText
		}
	}

	switch strings.ToLower(format) {
	case FormatText:
		h := tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  cfg.Dev(),
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName), nil
	case FormatJSON:
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
		return slog.New(h).With(
			"app", appName,
			"env", cfg.AppEnv,
		), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
