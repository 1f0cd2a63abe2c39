package types

import (
	"fmt"
	"math"
)

// Validation constraint constants.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	// MaxRingVertices bounds a drawn boundary; property outlines have a
	// handful of vertices, thousands indicate a client bug.
	MaxRingVertices = 2000
)

// Default target region: California.
const (
	DefaultRegionCode = "CA"
	DefaultRegionName = "California"
	DefaultCountry    = "us"

	CaliforniaMinLon = -124.48
	CaliforniaMinLat = 32.53
	CaliforniaMaxLon = -114.13
	CaliforniaMaxLat = 42.01
)

// CaliforniaBounds is the default search viewbox.
var CaliforniaBounds = BoundingBox{
	MinLon: CaliforniaMinLon,
	MinLat: CaliforniaMinLat,
	MaxLon: CaliforniaMaxLon,
	MaxLat: CaliforniaMaxLat,
}

// ValidateCoordinate checks that lat/lon are finite and within WGS84 range.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %v must be between %v and %v", lat, MinLat, MaxLat), nil)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %v must be between %v and %v", lon, MinLon, MaxLon), nil)
	}
	return nil
}

// ValidateRing checks every vertex of a ring and the vertex count bound.
// Rings with fewer than three vertices are valid input: they measure zero.
func ValidateRing(ring Ring) error {
	if len(ring) > MaxRingVertices {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidRing,
			fmt.Sprintf("ring must not exceed %d vertices", MaxRingVertices), nil,
			map[string]any{"vertices": len(ring)})
	}
	for i, p := range ring {
		if err := ValidateCoordinate(p.Lat, p.Lon); err != nil {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidRing,
				fmt.Sprintf("vertex %d is out of range", i), err,
				map[string]any{"index": i})
		}
	}
	return nil
}
