package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sync/internal/config"
	"github.com/i474232898/weather-sync/internal/logging"
	"github.com/i474232898/weather-sync/internal/store"
	"github.com/i474232898/weather-sync/internal/weather"
	"github.com/i474232898/weather-sync/internal/weather/providers"
)

const appName = "weather-sync"

var logFormat string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Keeps a local cache of the current weather in sync with OpenWeatherMap",
	Long: `weather-sync fetches the current weather for one fixed location from
OpenWeatherMap, writes it through to an embedded SQLite cache, and serves the
cache as live event streams over HTTP (and optionally MQTT).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text or json); defaults to text in dev, json otherwise")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime is everything a command needs: config, logger, the opened store
// and a repository wired to the remote client.
type runtime struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	store  weather.Store
	repo   *weather.Repository
}

func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg, logFormat, appName)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("store ready", "driver", cfg.StoreDriver)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	opts := []providers.Option{
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithLogger(logger),
	}
	if cfg.CircuitBreaker {
		opts = append(opts, providers.WithCircuitBreaker())
	}
	client := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, opts...)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  s,
		repo:   weather.NewRepository(client, s, cfg.Coordinates(), logger),
	}, nil
}

func openStore(cfg *config.AppConfig) (weather.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		r.logger.Error("closing store", "error", err)
	}
}
