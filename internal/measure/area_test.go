package measure

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"gomeasure/internal/types"
)

// square returns a closed-by-implication square with the south-west corner at
// (lat, lon) and the given side in degrees.
func square(lat, lon, side float64) types.Ring {
	return types.Ring{
		{Lat: lat, Lon: lon},
		{Lat: lat, Lon: lon + side},
		{Lat: lat + side, Lon: lon + side},
		{Lat: lat + side, Lon: lon},
	}
}

func TestArea_DegenerateRingsAreZero(t *testing.T) {
	tests := map[string]types.Ring{
		"nil":             nil,
		"single point":    {{Lat: 38.58, Lon: -121.49}},
		"two points":      {{Lat: 38.58, Lon: -121.49}, {Lat: 38.59, Lon: -121.49}},
		"repeated vertex": {{Lat: 38.58, Lon: -121.49}, {Lat: 38.59, Lon: -121.48}, {Lat: 38.58, Lon: -121.49}},
		"NaN coordinate":  {{Lat: 38.58, Lon: -121.49}, {Lat: math.NaN(), Lon: -121.48}, {Lat: 38.59, Lon: -121.47}},
		"infinite lon":    {{Lat: 38.58, Lon: -121.49}, {Lat: 38.59, Lon: math.Inf(-1)}, {Lat: 38.59, Lon: -121.47}},
	}
	for name, ring := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Zero(t, Area(ring))
			assert.Zero(t, DisplaySquareFeet(ring))
		})
	}
}

// A 0.001° square near 38.58°N is about 111 m by 87 m.
func TestArea_CollinearRingRoundsToZero(t *testing.T) {
	ring := types.Ring{{Lat: 38.58, Lon: -121.49}, {Lat: 38.58, Lon: -121.48}, {Lat: 38.58, Lon: -121.47}}

	assert.InDelta(t, 0, Area(ring), 1)
	assert.Zero(t, DisplaySquareFeet(ring))
}

func TestArea_SmallSquareNearSacramento(t *testing.T) {
	m2 := Area(square(38.58, -121.49, 0.001))

	assert.InDelta(t, 9687, m2, 15)
	assert.InDelta(t, 104_270, float64(DisplaySquareFeet(square(38.58, -121.49, 0.001))), 200)
}

// A typical residential lot lands in the 7,000 to 9,500 sq ft band.
func TestDisplaySquareFeet_HouseLot(t *testing.T) {
	sqft := DisplaySquareFeet(square(38.58, -121.49, 0.0003))

	assert.Greater(t, sqft, int64(7000))
	assert.Less(t, sqft, int64(9500))
}

func TestArea_RotationInvariant(t *testing.T) {
	ring := types.Ring{
		{Lat: 38.5801, Lon: -121.4950},
		{Lat: 38.5803, Lon: -121.4941},
		{Lat: 38.5797, Lon: -121.4936},
		{Lat: 38.5792, Lon: -121.4944},
		{Lat: 38.5795, Lon: -121.4952},
	}
	want := Area(ring)
	assert.Positive(t, want)

	for k := 1; k < len(ring); k++ {
		rotated := append(slices.Clone(ring[k:]), ring[:k]...)
		assert.InDelta(t, want, Area(rotated), 1e-6, "rotation %d", k)
	}
}

func TestArea_ReversalInvariant(t *testing.T) {
	ring := square(38.58, -121.49, 0.0005)
	reversed := slices.Clone(ring)
	slices.Reverse(reversed)

	assert.InDelta(t, Area(ring), Area(reversed), 1e-6)
}

func TestArea_ExplicitlyClosedRingMatchesImplicit(t *testing.T) {
	open := square(38.58, -121.49, 0.0005)
	closed := append(slices.Clone(open), open[0])

	assert.InDelta(t, Area(open), Area(closed), 1e-6)
}

func TestSquareFeetOf(t *testing.T) {
	assert.InDelta(t, 10.76391041671, SquareFeetOf(1), 1e-12)
	assert.Zero(t, SquareFeetOf(0))
}
