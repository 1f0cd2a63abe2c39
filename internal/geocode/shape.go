package geocode

import (
	"math"
	"strconv"
	"strings"

	"gomeasure/internal/types"
)

// Result cap bounds. The cap keeps pick lists short and cache payloads small.
const (
	MinResultCap     = 6
	MaxResultCap     = 8
	DefaultResultCap = MinResultCap
)

// ClampResultCap forces a configured cap into [MinResultCap, MaxResultCap].
func ClampResultCap(n int) int {
	switch {
	case n < MinResultCap:
		return MinResultCap
	case n > MaxResultCap:
		return MaxResultCap
	default:
		return n
	}
}

// Shape filters raw candidates through the classifier, maps the survivors to
// AddressCandidates, drops duplicates and truncates to limit. Upstream order
// is preserved; nothing is re-ranked.
func Shape(raw []types.RawCandidate, region RegionSpec, limit int) []types.AddressCandidate {
	limit = ClampResultCap(limit)
	out := make([]types.AddressCandidate, 0, limit)
	seen := make(map[string]struct{}, len(raw))

	for _, c := range raw {
		if len(out) == limit {
			break
		}
		if !IsAcceptable(c, region) {
			continue
		}
		cand, ok := Format(c)
		if !ok {
			continue
		}
		key := DedupKey(cand)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// Format maps one raw candidate to the canonical shape. It reports false when
// the record has no usable primary line or unparseable coordinates.
func Format(c types.RawCandidate) (types.AddressCandidate, bool) {
	primary := primaryLine(c)
	if primary == "" {
		return types.AddressCandidate{}, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(c.Lat), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(c.Lon), 64)
	if errLat != nil || errLon != nil || !finite(lat) || !finite(lon) {
		return types.AddressCandidate{}, false
	}

	a := c.Address
	return types.AddressCandidate{
		Primary: primary,
		City:    firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Municipality, a.County),
		Zip:     strings.TrimSpace(a.Postcode),
		Lat:     lat,
		Lon:     lon,
	}, true
}

// DedupKey is the case-insensitive composite identity of a shaped candidate.
func DedupKey(c types.AddressCandidate) string {
	return strings.ToLower(c.Primary + "|" + c.City + "|" + c.Zip)
}

// primaryLine is "{house_number} {street}" when both parts exist, otherwise
// the first comma-delimited segment of the display name.
func primaryLine(c types.RawCandidate) string {
	num := strings.TrimSpace(c.Address.HouseNumber)
	street := streetOf(c.Address)
	if num != "" && street != "" {
		return num + " " + street
	}
	first, _, _ := strings.Cut(c.DisplayName, ",")
	return Normalize(first)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
