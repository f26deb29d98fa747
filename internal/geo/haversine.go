package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKM is the mean Earth radius used for all distance math.
const EarthRadiusKM = 6371.0

type Coordinate struct {
	Lat float64
	Lon float64
}

type InvalidCoordinateError struct {
	Lat float64
	Lon float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%.6f lon=%.6f", e.Lat, e.Lon)
}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the great-circle distance in kilometers between two
// coordinates using the haversine formula. Pure function, no state.
func Distance(a, b Coordinate) (float64, error) {
	if !a.Valid() {
		return 0, &InvalidCoordinateError{Lat: a.Lat, Lon: a.Lon}
	}
	if !b.Valid() {
		return 0, &InvalidCoordinateError{Lat: b.Lat, Lon: b.Lon}
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKM * c, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
