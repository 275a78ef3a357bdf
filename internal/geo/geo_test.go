package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMetersIdenticalPoints(t *testing.T) {
	p := Coordinate{Latitude: 14.4516, Longitude: 120.9773}
	assert.Equal(t, 0.0, DistanceMeters(p, p))
}

func TestDistanceMetersSymmetry(t *testing.T) {
	a := Coordinate{Latitude: 14.4516, Longitude: 120.9773}
	b := Coordinate{Latitude: 14.5995, Longitude: 120.9842}
	assert.Equal(t, DistanceMeters(a, b), DistanceMeters(b, a))
}

func TestDistanceMetersLatitudeDisplacement(t *testing.T) {
	// 0.001 deg of latitude is R * 0.001 * pi/180 ~= 111.195 m.
	a := Coordinate{Latitude: 14.0, Longitude: 121.0}
	b := Coordinate{Latitude: 14.001, Longitude: 121.0}
	assert.InDelta(t, 111.195, DistanceMeters(a, b), 0.01)
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Latitude: 0, Longitude: 0}.Valid())
	assert.True(t, Coordinate{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, Coordinate{Latitude: 90.1, Longitude: 0}.Valid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: -180.5}.Valid())
}
