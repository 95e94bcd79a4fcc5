// Package geo converts geographic distance into a bounded proximity score.
package geo

import (
	"math"

	"github.com/reclaimhq/reclaim/internal/domain"
)

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// DecayConstantKm controls how fast proximity falls off with distance.
// score = exp(-(d/K)^2): ~1.0 at 0 km, ~0.78 at 1 km, ~0.02 at 4 km.
const DecayConstantKm = 2.0

// Haversine returns the great-circle distance in kilometers between two
// points specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Proximity scores how close two optional coordinate pairs are, via
// exponential decay over great-circle distance. Returns 0.0 when either
// side is absent; otherwise a value in (0,1], 1.0 at zero distance.
func Proximity(a, b *domain.Coordinates) float64 {
	if a == nil || b == nil {
		return 0
	}
	d := Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	return math.Exp(-math.Pow(d/DecayConstantKm, 2))
}
