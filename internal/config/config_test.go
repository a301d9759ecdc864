package config

import (
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-sync/internal/weather"
)

var allKeys = []string{
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "WEATHER_LAT", "WEATHER_LON",
	"HTTP_TIMEOUT", "CIRCUIT_BREAKER", "STORE_DRIVER", "SQLITE_PATH",
	"TEMPERATURE_UNIT", "INITIAL_SYNC", "PORT", "APP_ENV", "LOG_LEVEL",
	"MQTT_BROKER", "MQTT_PORT", "MQTT_TOPIC", "MQTT_CLIENT_ID",
}

// clearEnv blanks every variable Load reads; empty values select defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenWeatherBaseURL != "https://api.openweathermap.org" {
		t.Errorf("base url = %q", cfg.OpenWeatherBaseURL)
	}
	if got := cfg.Coordinates(); got != (weather.Coordinates{Lat: -33.43107, Lon: -70.64666}) {
		t.Errorf("coordinates = %+v", got)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.CircuitBreaker {
		t.Error("circuit breaker should default to off")
	}
	if cfg.StoreDriver != "sqlite" || cfg.SQLitePath != "data/weather.db" {
		t.Errorf("store = %q %q", cfg.StoreDriver, cfg.SQLitePath)
	}
	if cfg.TemperatureUnit != weather.Celsius {
		t.Errorf("unit = %q", cfg.TemperatureUnit)
	}
	if !cfg.InitialSync {
		t.Error("initial sync should default to on")
	}
	if cfg.Port != "8080" || !cfg.Dev() || cfg.LogLevel != "info" {
		t.Errorf("port/env/level = %q %q %q", cfg.Port, cfg.AppEnv, cfg.LogLevel)
	}
	if cfg.MQTTBroker != "" || cfg.MQTTPort != 1883 || cfg.MQTTTopic != "weather/records" || cfg.MQTTClientID != "weather-sync" {
		t.Errorf("mqtt = %q %d %q %q", cfg.MQTTBroker, cfg.MQTTPort, cfg.MQTTTopic, cfg.MQTTClientID)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "secret")
	t.Setenv("WEATHER_LAT", "51.5")
	t.Setenv("WEATHER_LON", "-0.12")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CIRCUIT_BREAKER", "true")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("TEMPERATURE_UNIT", "fahrenheit")
	t.Setenv("INITIAL_SYNC", "false")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MQTT_BROKER", "localhost")
	t.Setenv("MQTT_PORT", "8883")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenWeatherAPIKey != "secret" {
		t.Errorf("api key = %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.Latitude != 51.5 || cfg.Longitude != -0.12 {
		t.Errorf("coords = %v,%v", cfg.Latitude, cfg.Longitude)
	}
	if cfg.HTTPTimeout != 3*time.Second || !cfg.CircuitBreaker {
		t.Errorf("timeout/breaker = %v %v", cfg.HTTPTimeout, cfg.CircuitBreaker)
	}
	if cfg.StoreDriver != "memory" {
		t.Errorf("driver = %q", cfg.StoreDriver)
	}
	if cfg.TemperatureUnit != weather.Fahrenheit || cfg.InitialSync {
		t.Errorf("unit/initial = %q %v", cfg.TemperatureUnit, cfg.InitialSync)
	}
	if cfg.Dev() || cfg.LogLevel != "debug" {
		t.Errorf("env/level = %q %q", cfg.AppEnv, cfg.LogLevel)
	}
	if cfg.MQTTBroker != "localhost" || cfg.MQTTPort != 8883 {
		t.Errorf("mqtt = %q %d", cfg.MQTTBroker, cfg.MQTTPort)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"HTTP_TIMEOUT", "soon", "HTTP_TIMEOUT"},
		{"HTTP_TIMEOUT", "-1s", "HTTPTimeout"},
		{"WEATHER_LAT", "north", "WEATHER_LAT"},
		{"WEATHER_LAT", "91", "Latitude"},
		{"WEATHER_LON", "-181", "Longitude"},
		{"CIRCUIT_BREAKER", "maybe", "CIRCUIT_BREAKER"},
		{"INITIAL_SYNC", "sometimes", "INITIAL_SYNC"},
		{"STORE_DRIVER", "postgres", "StoreDriver"},
		{"APP_ENV", "staging", "AppEnv"},
		{"LOG_LEVEL", "trace", "LogLevel"},
		{"PORT", "http", "Port"},
		{"MQTT_PORT", "70000", "MQTTPort"},
		{"MQTT_PORT", "x", "MQTT_PORT"},
		{"OPENWEATHER_BASE_URL", "not a url", "OpenWeatherBaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
