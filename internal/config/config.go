package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-sync/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// Coordinates of the single tracked location.
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`

	// HTTPTimeout bounds every outbound call on the shared client.
	HTTPTimeout    time.Duration `validate:"gt=0"`
	CircuitBreaker bool

	StoreDriver string `validate:"oneof=sqlite memory"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`

	TemperatureUnit weather.Unit
	InitialSync     bool

	Port     string `validate:"required,numeric"`
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel string `validate:"oneof=debug info warn error"`

	MQTTBroker   string
	MQTTPort     int    `validate:"min=1,max=65535"`
	MQTTTopic    string `validate:"required"`
	MQTTClientID string `validate:"required"`
}

// Coordinates returns the tracked location.
func (c *AppConfig) Coordinates() weather.Coordinates {
	return weather.Coordinates{Lat: c.Latitude, Lon: c.Longitude}
}

// Dev reports whether the app runs in the development environment.
func (c *AppConfig) Dev() bool {
	return c.AppEnv == "dev"
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")

	var err error
	if cfg.Latitude, err = getenvFloat("WEATHER_LAT", -33.43107); err != nil {
		return nil, err
	}
	if cfg.Longitude, err = getenvFloat("WEATHER_LON", -70.64666); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if cfg.CircuitBreaker, err = getenvBool("CIRCUIT_BREAKER", false); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", "sqlite"))
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/weather.db")
	cfg.TemperatureUnit = weather.ParseUnit(getenvDefault("TEMPERATURE_UNIT", "celsius"))

	if cfg.InitialSync, err = getenvBool("INITIAL_SYNC", true); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = strings.ToLower(getenvDefault("APP_ENV", "dev"))
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	if cfg.MQTTPort, err = getenvInt("MQTT_PORT", 1883); err != nil {
		return nil, err
	}
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "weather/records")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "weather-sync")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
