package geocode

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomeasure/internal/types"
)

func TestClampResultCap(t *testing.T) {
	assert.Equal(t, 6, ClampResultCap(0))
	assert.Equal(t, 6, ClampResultCap(-3))
	assert.Equal(t, 7, ClampResultCap(7))
	assert.Equal(t, 8, ClampResultCap(20))
}

// Scenario: one Sacramento house and one park come back; only the house
// survives, shaped into the canonical record.
func TestShape_SingleHouseAmongPOIs(t *testing.T) {
	park := types.RawCandidate{
		DisplayName: "McKinley Park, Sacramento, California, United States",
		Lat:         "38.5768",
		Lon:         "-121.4669",
		Category:    "leisure",
		Type:        "park",
		Address:     types.RawAddress{City: "Sacramento", State: "California"},
	}
	raw := []types.RawCandidate{park, caHouse("220", "Pine Street")}

	got := Shape(raw, DefaultRegion(), DefaultResultCap)

	require.Len(t, got, 1)
	assert.Equal(t, types.AddressCandidate{
		Primary: "220 Pine Street",
		City:    "Sacramento",
		Zip:     "95815",
		Lat:     38.6089,
		Lon:     -121.4464,
	}, got[0])
}

func TestShape_EmptyInput(t *testing.T) {
	got := Shape(nil, DefaultRegion(), DefaultResultCap)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestShape_DedupCaseInsensitive(t *testing.T) {
	a := caHouse("220", "Pine Street")
	b := caHouse("220", "PINE STREET")
	b.Address.City = "sacramento"
	b.Lat = "38.6090"
	c := caHouse("221", "Pine Street")

	got := Shape([]types.RawCandidate{a, b, c}, DefaultRegion(), DefaultResultCap)

	require.Len(t, got, 2)
	assert.Equal(t, "220 Pine Street", got[0].Primary, "first occurrence wins")
	assert.Equal(t, 38.6089, got[0].Lat)
	assert.Equal(t, "221 Pine Street", got[1].Primary)
}

func TestShape_CapAndOrderPreserved(t *testing.T) {
	var raw []types.RawCandidate
	for i := 1; i <= 12; i++ {
		raw = append(raw, caHouse(strconv.Itoa(i), "Elm Street"))
	}

	got := Shape(raw, DefaultRegion(), 8)
	require.Len(t, got, 8)
	for i, c := range got {
		assert.Equal(t, strconv.Itoa(i+1)+" Elm Street", c.Primary)
	}

	assert.Len(t, Shape(raw, DefaultRegion(), 3), MinResultCap, "cap is clamped up to the minimum")
}

func TestShape_NoDuplicatesAndAllInRegion(t *testing.T) {
	raw := []types.RawCandidate{
		caHouse("1", "A St"), caHouse("1", "a st"), caHouse("2", "B St"),
	}
	nv := caHouse("3", "C St")
	nv.Address.StateCode, nv.Address.State = "NV", "Nevada"
	raw = append(raw, nv)

	got := Shape(raw, DefaultRegion(), DefaultResultCap)

	seen := map[string]bool{}
	for _, c := range got {
		key := DedupKey(c)
		assert.False(t, seen[key], "duplicate %q", key)
		seen[key] = true
		assert.NotEmpty(t, c.Primary)
	}
	assert.Len(t, got, 2)
}

func TestFormat_PrimaryFallsBackToDisplayName(t *testing.T) {
	c := types.RawCandidate{
		DisplayName: "Sunrise Apartments, 5000 Sunrise Blvd, Citrus Heights, California",
		Lat:         "38.68",
		Lon:         "-121.27",
		Type:        "apartments",
		Address:     types.RawAddress{Road: "Sunrise Blvd", Town: "Citrus Heights"},
	}

	got, ok := Format(c)
	require.True(t, ok)
	assert.Equal(t, "Sunrise Apartments", got.Primary)
	assert.Equal(t, "Citrus Heights", got.City, "town is used when city is absent")
}

func TestFormat_CityFallbackChain(t *testing.T) {
	c := caHouse("5", "Oak Ln")
	c.Address.City = ""
	c.Address.Village = "Walnut Grove"
	c.Address.County = "Sacramento County"

	got, ok := Format(c)
	require.True(t, ok)
	assert.Equal(t, "Walnut Grove", got.City)

	c.Address.Village = ""
	got, _ = Format(c)
	assert.Equal(t, "Sacramento County", got.City)
}

func TestFormat_Rejects(t *testing.T) {
	emptyPrimary := types.RawCandidate{DisplayName: " , Sacramento", Lat: "38", Lon: "-121"}
	_, ok := Format(emptyPrimary)
	assert.False(t, ok, "empty primary line")

	badLat := caHouse("1", "Main St")
	badLat.Lat = "north"
	_, ok = Format(badLat)
	assert.False(t, ok, "unparseable latitude")

	nan := caHouse("1", "Main St")
	nan.Lon = "NaN"
	_, ok = Format(nan)
	assert.False(t, ok, "non-finite longitude")
}
