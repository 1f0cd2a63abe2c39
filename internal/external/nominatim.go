package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gomeasure/internal/types"
)

// nominatimAPIBase is the public OpenStreetMap Nominatim endpoint.
// Overridable in tests via NominatimClientConfig.BaseURL.
const nominatimAPIBase = "https://nominatim.openstreetmap.org"

// DefaultUserAgent identifies GoMeasure to upstream services. Nominatim's
// usage policy requires a stable, application-specific agent.
const DefaultUserAgent = "GoMeasure/1.0"

// maxSearchResponseBytes caps the decoded search payload.
const maxSearchResponseBytes = 1 << 20

// NominatimClientConfig holds the configuration for creating a NominatimClient.
type NominatimClientConfig struct {
	BaseURL        string // Override for testing; defaults to nominatimAPIBase
	UserAgent      string
	AcceptLanguage string
	Logger         *slog.Logger
}

// NominatimClient implements the geocoder search collaborator against the
// Nominatim /search endpoint through BaseClient, inheriting its circuit
// breaker, per-attempt timeout and retry behavior.
type NominatimClient struct {
	base           *BaseClient
	baseURL        string
	acceptLanguage string
	logger         *slog.Logger
}

// NewNominatimClient creates a NominatimClient with the given retry policy.
func NewNominatimClient(httpClient *http.Client, policy RetryPolicy, cfg NominatimClientConfig) *NominatimClient {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	base := NewBaseClient(httpClient, "nominatim", policy, userAgent)
	return NewNominatimClientWithBase(base, cfg)
}

// NewNominatimClientWithBase creates a NominatimClient with a pre-configured
// BaseClient. Tests use it to control sleeping and the circuit breaker.
func NewNominatimClientWithBase(base *BaseClient, cfg NominatimClientConfig) *NominatimClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = nominatimAPIBase
	}
	lang := cfg.AcceptLanguage
	if lang == "" {
		lang = "en"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &NominatimClient{
		base:           base,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		acceptLanguage: lang,
		logger:         logger,
	}
}

// Search issues one constrained search and decodes the raw hits.
//
// Error mapping:
//   - timeout, 429, 503 -> retried by BaseClient, then ErrCodeUpstreamTimeout /
//     ErrCodeUpstreamRateLimited / ErrCodeUpstreamUnavailable
//   - any other non-2xx -> types.ErrCodeUpstreamRejected (not retried)
//   - undecodable body -> types.ErrCodeUpstreamMalformed
func (n *NominatimClient) Search(ctx context.Context, in types.GeocodeRequest) ([]types.RawCandidate, error) {
	reqURL := n.baseURL + "/search?" + searchParams(in).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create Nominatim search request",
			err,
		)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", n.acceptLanguage)

	start := time.Now()
	resp, err := n.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.logger.WarnContext(ctx, "nominatim rejected search",
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamRejected,
			fmt.Sprintf("nominatim returned %d", resp.StatusCode),
			nil,
			map[string]any{"status": resp.StatusCode},
		)
	}

	var hits []types.RawCandidate
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSearchResponseBytes)).Decode(&hits); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamMalformed,
			"failed to decode Nominatim search response",
			err,
		)
	}

	n.logger.DebugContext(ctx, "nominatim search completed",
		"hits", len(hits),
		"duration", time.Since(start),
	)
	return hits, nil
}

// searchParams renders the query string. The viewbox order is
// left,top,right,bottom: minLon,maxLat,maxLon,minLat.
func searchParams(in types.GeocodeRequest) url.Values {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", in.Query)
	if in.AddressDetails {
		q.Set("addressdetails", "1")
	}
	if in.Limit > 0 {
		q.Set("limit", strconv.Itoa(in.Limit))
	}
	if len(in.CountryCodes) > 0 {
		q.Set("countrycodes", strings.Join(in.CountryCodes, ","))
	}
	if in.ViewBox != (types.BoundingBox{}) {
		q.Set("viewbox", strings.Join([]string{
			formatCoord(in.ViewBox.MinLon),
			formatCoord(in.ViewBox.MaxLat),
			formatCoord(in.ViewBox.MaxLon),
			formatCoord(in.ViewBox.MinLat),
		}, ","))
		if in.Bounded {
			q.Set("bounded", "1")
		}
	}
	return q
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
