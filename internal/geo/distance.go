package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used for Haversine calculation.
	EarthRadiusMeters = 6371008.8

	degToRad = math.Pi / 180
)

// HaversineMeters calculates the great-circle distance between two points
// on Earth in meters using the Haversine formula.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// IsWithinRadius checks if two coordinates are within radiusMeters of each other.
func IsWithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return HaversineMeters(lat1, lon1, lat2, lon2) <= radiusMeters
}

// ValidLatLon reports whether the coordinates are in range.
func ValidLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 && !math.IsNaN(lat) && !math.IsNaN(lon)
}
