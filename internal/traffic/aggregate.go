package traffic

// MeanForecastIntensity averages the day_mean values present across the
// venue's forecast series. Days without a mean are excluded from the
// average, and a venue with no usable values yields 0.
func MeanForecastIntensity(v Venue) float64 {
	var sum float64
	var n int

	for _, day := range v.ForecastDays {
		if day.DayInfo == nil || day.DayInfo.DayMean == nil {
			continue
		}
		sum += *day.DayInfo.DayMean
		n++
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
