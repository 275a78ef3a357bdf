package traffic

import (
	"fmt"
	"time"

	"github.com/b31417592/location-insights/internal/geo"
)

// Venue is a candidate place from the foot-traffic provider, kept close to
// the provider's raw field names so handlers can pass it through untouched.
type Venue struct {
	ID       string   `json:"venue_id,omitempty"`
	Name     string   `json:"venue_name,omitempty"`
	Address  string   `json:"venue_address,omitempty"`
	Lat      *float64 `json:"venue_lat,omitempty"`
	Lon      *float64 `json:"venue_lon,omitempty"`
	Forecast bool     `json:"forecast,omitempty"`

	ForecastDays []DayForecast `json:"venue_foot_traffic_forecast,omitempty"`
}

// DayForecast is one day of a venue's foot-traffic forecast.
type DayForecast struct {
	DayInfo *DayInfo `json:"day_info,omitempty"`
}

// DayInfo carries the per-day aggregates. DayMean is a pointer because the
// provider omits it for days without data, and absence must not read as zero.
type DayInfo struct {
	DayInt  *int     `json:"day_int,omitempty"`
	DayText string   `json:"day_text,omitempty"`
	DayMean *float64 `json:"day_mean,omitempty"`
	DayMax  *int     `json:"day_max,omitempty"`
}

// Coordinate returns the venue position when both components are present.
func (v Venue) Coordinate() (geo.Coordinate, bool) {
	if v.Lat == nil || v.Lon == nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Latitude: *v.Lat, Longitude: *v.Lon}, true
}

// HasForecastSeries reports whether the venue carries any forecast days.
func (v Venue) HasForecastSeries() bool {
	return len(v.ForecastDays) > 0
}

// RankedVenue is a Venue with the two derived ranking fields attached.
type RankedVenue struct {
	Venue

	DistanceMeters        float64 `json:"distance_meters"`
	MeanForecastIntensity float64 `json:"avg_day_mean"`
}

// SearchQuery bundles the inputs of one venue-search resolution.
// PollDeadline and PollInterval are optional per-call overrides of the
// service defaults; zero means "use the default".
type SearchQuery struct {
	QueryText    string
	Center       geo.Coordinate
	RadiusMeters int
	ResultLimit  int
	TopN         int

	PollDeadline time.Duration
	PollInterval time.Duration
}

// Validate checks the query constraints. ResultLimit is defaulted by the
// service, not validated here.
func (q SearchQuery) Validate() error {
	if q.QueryText == "" {
		return fmt.Errorf("query text must not be empty")
	}
	if q.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive, got %d", q.RadiusMeters)
	}
	if q.TopN < 1 {
		return fmt.Errorf("top-n must be at least 1, got %d", q.TopN)
	}
	if !q.Center.Valid() {
		return fmt.Errorf("center coordinate out of range: %+v", q.Center)
	}
	return nil
}
