// Package places discovers nearby establishments through the Google Places
// API and classifies them for site reports.
package places

// Place is one establishment from a nearby search, flattened to the fields
// the report endpoints expose.
type Place struct {
	Name             string   `json:"name"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Types            []string `json:"all_types"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	PlaceID          string   `json:"place_id,omitempty"`
	PhotoReference   string   `json:"photo_reference,omitempty"`
	PhotoWidth       int      `json:"photo_width,omitempty"`
	PhotoHeight      int      `json:"photo_height,omitempty"`
	Icon             string   `json:"icon,omitempty"`
}

// HasType reports whether the place carries the given Google type tag.
func (p Place) HasType(t string) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}
