package httpapi

import (
	"time"

	"github.com/i474232898/weather-sync/internal/weather"
)

// recordView is a Record with temperatures rendered in the caller's unit.
type recordView struct {
	ID          int64             `json:"id"`
	CityName    string            `json:"cityName"`
	Unit        weather.Unit      `json:"unit"`
	Temperature float64           `json:"temperature"`
	FeelsLike   float64           `json:"feelsLike"`
	TempMin     float64           `json:"tempMin"`
	TempMax     float64           `json:"tempMax"`
	Display     string            `json:"display"`
	Pressure    float64           `json:"pressureHpa"`
	Humidity    float64           `json:"humidityPercent"`
	WindSpeed   float64           `json:"windSpeed"`
	Condition   weather.Condition `json:"condition"`
	Description string            `json:"description,omitempty"`
	Sunrise     *time.Time        `json:"sunrise,omitempty"`
	Sunset      *time.Time        `json:"sunset,omitempty"`
	ObservedAt  time.Time         `json:"observedAt"`
}

func view(rec weather.Record, unit weather.Unit) recordView {
	return recordView{
		ID:          rec.ID,
		CityName:    rec.CityName,
		Unit:        unit,
		Temperature: unit.Convert(rec.Temperature),
		FeelsLike:   unit.Convert(rec.FeelsLike),
		TempMin:     unit.Convert(rec.TempMin),
		TempMax:     unit.Convert(rec.TempMax),
		Display:     unit.Format(rec.Temperature),
		Pressure:    rec.Pressure,
		Humidity:    rec.Humidity,
		WindSpeed:   rec.WindSpeed,
		Condition:   rec.Condition,
		Description: rec.Description,
		Sunrise:     optionalTime(rec.Sunrise),
		Sunset:      optionalTime(rec.Sunset),
		ObservedAt:  rec.ObservedAt,
	}
}

func viewAll(recs []weather.Record, unit weather.Unit) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, view(rec, unit))
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// syncResponse is one sync state as sent to clients. Kind and Message are set
// only for the error state.
type syncResponse struct {
	SyncID  string         `json:"syncId"`
	Status  weather.Status `json:"status"`
	Record  *recordView    `json:"record,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
}

func newSyncResponse(id string, res weather.FetchResult, unit weather.Unit) syncResponse {
	out := syncResponse{SyncID: id, Status: res.Status}
	if res.Record != nil {
		v := view(*res.Record, unit)
		out.Record = &v
	}
	if res.Err != nil {
		out.Kind = res.Err.Kind.String()
		out.Message = res.Err.Error()
	}
	return out
}
