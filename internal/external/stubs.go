package external

import (
	"context"
	"log/slog"
	"strings"

	"gomeasure/internal/types"
)

// StubGeocoder implements Geocoder from a fixed in-memory catalog so the
// service can boot without network access. Used when config.IsTestMode is
// true or GEOCODER_PROVIDER=stub.
//
// A query matches a fixture when every word of the query occurs in the
// fixture's display name, case-insensitively.
type StubGeocoder struct {
	logger   *slog.Logger
	fixtures []types.RawCandidate
}

// NewStubGeocoder creates a StubGeocoder. Without fixtures it serves the
// built-in Sacramento catalog.
func NewStubGeocoder(logger *slog.Logger, fixtures ...types.RawCandidate) *StubGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	if len(fixtures) == 0 {
		fixtures = defaultStubFixtures()
	}
	return &StubGeocoder{logger: logger, fixtures: fixtures}
}

// Search returns the fixtures whose display name contains every word of the
// query, honoring req.Limit. It never fails.
func (s *StubGeocoder) Search(ctx context.Context, req types.GeocodeRequest) ([]types.RawCandidate, error) {
	words := strings.Fields(strings.ToLower(req.Query))

	var hits []types.RawCandidate
	for _, f := range s.fixtures {
		if req.Limit > 0 && len(hits) == req.Limit {
			break
		}
		name := strings.ToLower(f.DisplayName)
		matched := len(words) > 0
		for _, w := range words {
			if !strings.Contains(name, w) {
				matched = false
				break
			}
		}
		if matched {
			hits = append(hits, f)
		}
	}

	s.logger.InfoContext(ctx, "stub: Search called",
		"query_length", len(req.Query),
		"hits", len(hits),
	)
	return hits, nil
}

func defaultStubFixtures() []types.RawCandidate {
	sacramento := func(num, road, zip, lat, lon string) types.RawCandidate {
		return types.RawCandidate{
			DisplayName: num + ", " + road + ", Downtown, Sacramento, Sacramento County, California, " + zip + ", United States",
			Lat:         lat,
			Lon:         lon,
			Category:    "place",
			Type:        "house",
			Address: types.RawAddress{
				HouseNumber: num,
				Road:        road,
				City:        "Sacramento",
				County:      "Sacramento County",
				State:       "California",
				ISO3166Lvl4: "US-CA",
				Postcode:    zip,
				CountryCode: "us",
			},
		}
	}

	return []types.RawCandidate{
		sacramento("1315", "10th Street", "95814", "38.5764", "-121.4934"),
		sacramento("1500", "Capitol Mall", "95814", "38.5767", "-121.5005"),
		sacramento("220", "Pine Street", "95815", "38.6089", "-121.4464"),
		sacramento("915", "I Street", "95814", "38.5818", "-121.4951"),
		{
			DisplayName: "State Capitol, 10th Street, Sacramento, California, 95814, United States",
			Lat:         "38.5766",
			Lon:         "-121.4932",
			Category:    "tourism",
			Type:        "attraction",
			Address: types.RawAddress{
				Road:        "10th Street",
				City:        "Sacramento",
				State:       "California",
				ISO3166Lvl4: "US-CA",
				Postcode:    "95814",
			},
		},
	}
}
