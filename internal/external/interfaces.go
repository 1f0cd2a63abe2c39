package external

import (
	"context"

	"gomeasure/internal/types"
)

// Geocoder abstracts the upstream free-text address search. Implementations
// translate the constrained request into the vendor API and return the raw
// hits in upstream order.
type Geocoder interface {
	// Search returns raw hits for the request. Transient failures have
	// already been retried when an error is returned.
	Search(ctx context.Context, req types.GeocodeRequest) ([]types.RawCandidate, error)
}

// Compile-time interface checks.
var (
	_ Geocoder = (*NominatimClient)(nil)
	_ Geocoder = (*StubGeocoder)(nil)
)
