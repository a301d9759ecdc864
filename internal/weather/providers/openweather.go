package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-sync/internal/weather"
)

// DefaultOpenWeatherBaseURL is the public OpenWeatherMap API host.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

const currentWeatherPath = "/data/2.5/weather"

// OpenWeatherProvider implements weather.Client for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// Option configures an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *OpenWeatherProvider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCircuitBreaker wraps requests in a circuit breaker that opens after
// five consecutive failures and probes again after two minutes.
func WithCircuitBreaker() Option {
	return func(p *OpenWeatherProvider) {
		p.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *OpenWeatherProvider) {
		p.logger = l
	}
}

// NewOpenWeatherProvider builds a provider around the shared client. The
// client is reused for every call and its timeout is the only one applied.
func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherBaseURL,
		client:  client,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch performs one GET for the current weather at coords. No units
// parameter is sent, so temperatures come back in Kelvin.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, coords weather.Coordinates) (weather.Payload, error) {
	if p.apiKey == "" {
		return weather.Payload{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%.5f", coords.Lat))
	values.Set("lon", fmt.Sprintf("%.5f", coords.Lon))
	values.Set("appid", p.apiKey)

	u := fmt.Sprintf("%s%s?%s", p.baseURL, currentWeatherPath, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Payload{}, err
	}

	start := time.Now()
	resp, err := doRequest(p.client, p.circuit, req)
	if err != nil {
		return weather.Payload{}, err
	}
	defer drain(resp.Body)

	p.logger.Debug("provider responded",
		"provider", p.Name(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return weather.Payload{}, &weather.HTTPFailure{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
		}
	}

	var payload currentWeatherResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return weather.Payload{}, fmt.Errorf("decoding openweather response: %w", err)
	}

	return payload.toPayload(), nil
}

type currentWeatherResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []weatherItem `json:"weather"`
	Sys     struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

type weatherItem struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

func (r currentWeatherResponse) toPayload() weather.Payload {
	var ts time.Time
	if r.Dt > 0 {
		ts = time.Unix(r.Dt, 0).UTC()
	}

	var description string
	if len(r.Weather) > 0 {
		description = r.Weather[0].Description
	}

	return weather.Payload{
		CityID:      r.ID,
		CityName:    r.Name,
		Timestamp:   ts,
		TempK:       r.Main.Temp,
		FeelsLikeK:  r.Main.FeelsLike,
		TempMinK:    r.Main.TempMin,
		TempMaxK:    r.Main.TempMax,
		PressureHpa: r.Main.Pressure,
		HumidityPct: r.Main.Humidity,
		WindSpeedMS: r.Wind.Speed,
		Condition:   mapOpenWeatherCondition(r.Weather),
		Description: description,
		Sunrise:     unixOrZero(r.Sys.Sunrise),
		Sunset:      unixOrZero(r.Sys.Sunset),
	}
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func mapOpenWeatherCondition(items []weatherItem) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
