package places

import (
	"fmt"

	"github.com/b31417592/location-insights/internal/geo"
	"github.com/kelvins/geocoder"
)

// AddressComponents is the administrative breakdown attached to reports and
// saved targets. Field names follow Philippine usage.
type AddressComponents struct {
	Municipality string `json:"municipality,omitempty"`
	Barangay     string `json:"barangay,omitempty"`
	Province     string `json:"province,omitempty"`
	Region       string `json:"region,omitempty"`
}

// Merge fills empty fields from other, never overwriting ones already set.
func (a AddressComponents) Merge(other AddressComponents) AddressComponents {
	if a.Municipality == "" {
		a.Municipality = other.Municipality
	}
	if a.Barangay == "" {
		a.Barangay = other.Barangay
	}
	if a.Province == "" {
		a.Province = other.Province
	}
	if a.Region == "" {
		a.Region = other.Region
	}
	return a
}

// IsZero reports whether no component is set.
func (a AddressComponents) IsZero() bool {
	return a == AddressComponents{}
}

// ReverseGeocode resolves the administrative components for a coordinate
// through the Google Geocoding API. geocoder.ApiKey must be set at startup;
// results for the same coordinate can differ in granularity, so the first
// address carrying each component wins.
func ReverseGeocode(c geo.Coordinate) (AddressComponents, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	})
	if err != nil {
		return AddressComponents{}, fmt.Errorf("reverse geocode: %w", err)
	}

	var comp AddressComponents
	for _, addr := range addresses {
		if comp.Municipality == "" && addr.City != "" {
			comp.Municipality = addr.City
		}
		if comp.Barangay == "" && addr.District != "" {
			comp.Barangay = addr.District
		}
		if comp.Province == "" && addr.County != "" {
			comp.Province = addr.County
		}
		if comp.Region == "" && addr.State != "" {
			comp.Region = addr.State
		}
	}
	return comp, nil
}
