package traffic

import (
	"sort"

	"github.com/b31417592/location-insights/internal/geo"
)

// Rank filters venues down to ranking candidates, derives their distance to
// target and mean forecast intensity, and returns the top-N ordered by
// distance ascending with ties broken by intensity descending.
//
// A venue is a candidate only if it carries a non-empty forecast series and
// both coordinates; everything else is dropped silently. An empty result is
// a valid outcome, not an error.
func Rank(venues []Venue, target geo.Coordinate, topN int) []RankedVenue {
	candidates := make([]RankedVenue, 0, len(venues))

	for _, v := range venues {
		if !v.HasForecastSeries() {
			continue
		}
		pos, ok := v.Coordinate()
		if !ok {
			continue
		}

		candidates = append(candidates, RankedVenue{
			Venue:                 v,
			DistanceMeters:        geo.DistanceMeters(target, pos),
			MeanForecastIntensity: MeanForecastIntensity(v),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DistanceMeters != candidates[j].DistanceMeters {
			return candidates[i].DistanceMeters < candidates[j].DistanceMeters
		}
		return candidates[i].MeanForecastIntensity > candidates[j].MeanForecastIntensity
	})

	if topN < len(candidates) {
		candidates = candidates[:topN]
	}
	return candidates
}
