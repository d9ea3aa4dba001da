package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)) * 1000
}

// Moved reports whether the second point is at least minMeters away from the first.
func Moved(lat1, lng1, lat2, lng2, minMeters float64) bool {
	if minMeters <= 0 {
		return true
	}
	return Haversine(lat1, lng1, lat2, lng2) >= minMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
