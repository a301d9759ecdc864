package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates identify the single location this service tracks.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is one persisted weather observation. Temperatures are stored in
// Kelvin, the unit the remote API reports when no units parameter is sent.
// A Record with ID 0 is transient: the store assigns an ID on insert.
type Record struct {
	ID          int64     `json:"id"`
	CityName    string    `json:"cityName" validate:"required"`
	Temperature float64   `json:"temperature" validate:"gte=0"`
	FeelsLike   float64   `json:"feelsLike" validate:"gte=0"`
	TempMin     float64   `json:"tempMin" validate:"gte=0"`
	TempMax     float64   `json:"tempMax" validate:"gte=0"`
	Pressure    float64   `json:"pressureHpa"`
	Humidity    float64   `json:"humidityPercent" validate:"gte=0,lte=100"`
	WindSpeed   float64   `json:"windSpeed"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	ObservedAt  time.Time `json:"observedAt"` // always UTC
}

// Transient reports whether the record has not been persisted yet.
func (r Record) Transient() bool {
	return r.ID == 0
}

// Payload is a decoded remote reading, before it becomes a Record.
type Payload struct {
	CityID      int64
	CityName    string
	Timestamp   time.Time
	TempK       float64
	FeelsLikeK  float64
	TempMinK    float64
	TempMaxK    float64
	PressureHpa float64
	HumidityPct float64
	WindSpeedMS float64
	Condition   Condition
	Description string
	Sunrise     time.Time
	Sunset      time.Time
}

// ToRecord converts the payload into a storable record. The city ID becomes
// the record ID, so repeated fetches for one city replace the same row.
func (p Payload) ToRecord() Record {
	ts := p.Timestamp.UTC()
	if p.Timestamp.IsZero() {
		ts = time.Now().UTC()
	}
	return Record{
		ID:          p.CityID,
		CityName:    p.CityName,
		Temperature: p.TempK,
		FeelsLike:   p.FeelsLikeK,
		TempMin:     p.TempMinK,
		TempMax:     p.TempMaxK,
		Pressure:    p.PressureHpa,
		Humidity:    p.HumidityPct,
		WindSpeed:   p.WindSpeedMS,
		Condition:   p.Condition,
		Description: p.Description,
		Sunrise:     p.Sunrise.UTC(),
		Sunset:      p.Sunset.UTC(),
		ObservedAt:  ts,
	}
}

// Status is the tag of a FetchResult.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchResult is one state of a remote sync. Exactly one of Record (for
// StatusSuccess) or Err (for StatusError) is set; Loading carries neither.
type FetchResult struct {
	Status Status      `json:"status"`
	Record *Record     `json:"record,omitempty"`
	Err    *FetchError `json:"error,omitempty"`
}

// Terminal reports whether no further states follow this one.
func (r FetchResult) Terminal() bool {
	return r.Status != StatusLoading
}

func loading() FetchResult {
	return FetchResult{Status: StatusLoading}
}

func success(rec Record) FetchResult {
	return FetchResult{Status: StatusSuccess, Record: &rec}
}

func failure(err *FetchError) FetchResult {
	return FetchResult{Status: StatusError, Err: err}
}
