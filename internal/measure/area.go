// Package measure computes the area of hand-drawn property outlines and holds
// the per-user state around drawing them: the single active polygon and the
// map viewport it is drawn on.
package measure

import (
	"math"

	"gomeasure/internal/types"
)

const (
	// EarthRadiusMeters is the WGS84 equatorial radius used by the area formula.
	EarthRadiusMeters = 6378137.0

	// SquareFeetPerSquareMeter converts m² to ft².
	SquareFeetPerSquareMeter = 10.76391041671

	degToRad = math.Pi / 180
)

// Area returns the approximate geodesic area of ring in square meters.
//
// The ring is implicitly closed. Fewer than three distinct vertices, or any
// non-finite coordinate, yields 0. The result is never negative.
//
// The formula integrates over the sphere edge by edge and is accurate for
// small outlines that do not cross the antimeridian or approach the poles.
func Area(ring types.Ring) float64 {
	if distinctVertices(ring) < 3 {
		return 0
	}

	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		sum += (p2.Lon - p1.Lon) * degToRad *
			(2 + math.Sin(p1.Lat*degToRad) + math.Sin(p2.Lat*degToRad))
	}

	area := math.Abs(sum * EarthRadiusMeters * EarthRadiusMeters / 2)
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return 0
	}
	return area
}

// SquareFeetOf converts square meters to square feet.
func SquareFeetOf(m2 float64) float64 {
	return m2 * SquareFeetPerSquareMeter
}

// DisplaySquareFeet is the whole-number figure shown to users and handed to
// pricing: the ring's area in square feet, rounded, never below zero.
func DisplaySquareFeet(ring types.Ring) int64 {
	sqft := math.Round(SquareFeetOf(Area(ring)))
	if sqft <= 0 || math.IsNaN(sqft) {
		return 0
	}
	return int64(sqft)
}

// distinctVertices counts unique vertices, returning 0 as soon as a
// non-finite coordinate is seen.
func distinctVertices(ring types.Ring) int {
	if len(ring) < 3 {
		return 0
	}
	seen := make(map[types.LatLon]struct{}, len(ring))
	for _, p := range ring {
		if !finite(p.Lat) || !finite(p.Lon) {
			return 0
		}
		seen[p] = struct{}{}
	}
	return len(seen)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
