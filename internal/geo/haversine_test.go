package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownCities(t *testing.T) {
	mumbai := Coordinate{Lat: 19.0760, Lon: 72.8777}
	delhi := Coordinate{Lat: 28.7041, Lon: 77.1025}

	d, err := Distance(mumbai, delhi)
	assert.NoError(t, err)
	// Mumbai-Delhi is roughly 1150 km great-circle.
	assert.InDelta(t, 1150, d, 30)
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	p := Coordinate{Lat: 19.07, Lon: 72.87}

	d, err := Distance(p, p)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestDistanceSymmetric(t *testing.T) {
	a := Coordinate{Lat: 19.08, Lon: 72.88}
	b := Coordinate{Lat: 19.20, Lon: 72.90}

	d1, err := Distance(a, b)
	assert.NoError(t, err)
	d2, err := Distance(b, a)
	assert.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Greater(t, d1, 0.0)
}

func TestDistanceNearbyPoints(t *testing.T) {
	lead := Coordinate{Lat: 19.07, Lon: 72.87}
	w1 := Coordinate{Lat: 19.08, Lon: 72.88}
	w2 := Coordinate{Lat: 19.20, Lon: 72.90}

	d1, err := Distance(lead, w1)
	assert.NoError(t, err)
	d2, err := Distance(lead, w2)
	assert.NoError(t, err)

	assert.Less(t, d1, d2)
	assert.Less(t, d1, 5.0) // a couple of km apart
}

func TestDistanceInvalidCoordinates(t *testing.T) {
	valid := Coordinate{Lat: 19.07, Lon: 72.87}

	cases := []Coordinate{
		{Lat: 91, Lon: 0},
		{Lat: -91, Lon: 0},
		{Lat: 0, Lon: 181},
		{Lat: 0, Lon: -181},
	}

	for _, bad := range cases {
		_, err := Distance(valid, bad)
		assert.Error(t, err)

		var invalid *InvalidCoordinateError
		assert.ErrorAs(t, err, &invalid)

		_, err = Distance(bad, valid)
		assert.Error(t, err)
	}
}
