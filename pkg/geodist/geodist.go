// Package geodist classifies coordinates by great-circle distance from a reference point.
package geodist

import (
	"math"

	"github.com/kass/geowithin/pkg/models"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Distance calculates the Haversine distance between two points in kilometers.
// Inputs are not range checked; NaN propagates to the result.
func Distance(a, b models.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h just past 1 for antipodal points.
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Within reports whether subject lies strictly closer than thresholdKm to reference.
// A subject exactly thresholdKm away is not within.
func Within(thresholdKm float64, reference, subject models.Coordinate) bool {
	return Distance(reference, subject) < thresholdKm
}

// NotWithin is the complement of Within for identical arguments.
func NotWithin(thresholdKm float64, reference, subject models.Coordinate) bool {
	return !Within(thresholdKm, reference, subject)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
