package geocode

import (
	"strings"

	"gomeasure/internal/types"
)

// blockedClasses are place classes that never describe a street address.
// A blocked class rejects a candidate even when its type is allow-listed.
var blockedClasses = map[string]struct{}{
	"highway":          {},
	"railway":          {},
	"natural":          {},
	"waterway":         {},
	"aeroway":          {},
	"amenity":          {},
	"shop":             {},
	"tourism":          {},
	"leisure":          {},
	"landuse":          {},
	"place_of_worship": {},
	"man_made":         {},
	"historic":         {},
	"military":         {},
	"office":           {},
	"boundary":         {},
}

// homeTypes are place types that denote a residence, building or address
// point on their own.
var homeTypes = map[string]struct{}{
	"house":              {},
	"residential":        {},
	"building":           {},
	"yes":                {},
	"address":            {},
	"apartments":         {},
	"detached":           {},
	"semidetached_house": {},
	"terrace":            {},
}

// IsAcceptable reports whether a raw candidate lies in the target region and
// looks like a street address. Both predicates must hold.
func IsAcceptable(c types.RawCandidate, region RegionSpec) bool {
	return InRegion(c, region) && IsHomeLike(c)
}

// InRegion matches the candidate's subdivision against the region, on either
// the short code or the full name.
func InRegion(c types.RawCandidate, region RegionSpec) bool {
	code := strings.TrimSpace(c.Address.RegionCode())
	if code != "" && strings.EqualFold(code, region.Code) {
		return true
	}
	state := strings.TrimSpace(c.Address.State)
	return state != "" && strings.EqualFold(state, region.Name)
}

// IsHomeLike reports whether the candidate resembles a street address rather
// than a point of interest.
func IsHomeLike(c types.RawCandidate) bool {
	if _, blocked := blockedClasses[strings.ToLower(c.PlaceClass())]; blocked {
		return false
	}
	if hasText(c.Address.HouseNumber) && streetOf(c.Address) != "" {
		return true
	}
	_, ok := homeTypes[strings.ToLower(c.Type)]
	return ok
}

// streetOf returns the first street-like field: road, then the secondary way
// types Nominatim uses for addresses on pedestrian streets and paths.
func streetOf(a types.RawAddress) string {
	return firstNonEmpty(a.Road, a.Pedestrian, a.Footway, a.Path)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
