package geo

import (
	"fmt"
	"strconv"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	lat float64
	lon float64
}

// NewPoint validates and creates a Point.
func NewPoint(lat, lon float64) (Point, error) {
	if !ValidateCoordinates(lat, lon) {
		return Point{}, fmt.Errorf("invalid coordinates lat=%v lon=%v", lat, lon)
	}
	return Point{lat: lat, lon: lon}, nil
}

// Lat returns the latitude.
func (p Point) Lat() float64 { return p.lat }

// Lon returns the longitude.
func (p Point) Lon() float64 { return p.lon }

// Source returns the engine object form {"lat":..,"lon":..}.
func (p Point) Source() map[string]any {
	return map[string]any{"lat": p.lat, "lon": p.lon}
}

// String returns the "lat,lon" form.
func (p Point) String() string {
	return strconv.FormatFloat(p.lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.lon, 'f', -1, 64)
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
