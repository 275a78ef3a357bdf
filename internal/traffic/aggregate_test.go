package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func forecastDays(means ...*float64) []DayForecast {
	days := make([]DayForecast, 0, len(means))
	for _, m := range means {
		days = append(days, DayForecast{DayInfo: &DayInfo{DayMean: m}})
	}
	return days
}

func TestMeanForecastIntensityEmptyVenue(t *testing.T) {
	assert.Equal(t, 0.0, MeanForecastIntensity(Venue{}))
}

func TestMeanForecastIntensitySkipsMissingDays(t *testing.T) {
	v := Venue{ForecastDays: forecastDays(floatPtr(10), nil, floatPtr(20))}
	v.ForecastDays = append(v.ForecastDays, DayForecast{DayInfo: nil})

	assert.InDelta(t, 15.0, MeanForecastIntensity(v), 1e-9)
}

func TestMeanForecastIntensityAllDaysMissing(t *testing.T) {
	v := Venue{ForecastDays: forecastDays(nil, nil)}
	assert.Equal(t, 0.0, MeanForecastIntensity(v))
}
