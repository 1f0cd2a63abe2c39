// Package handlers contains the HTTP handler implementations for the GoMeasure API.
//
// Handlers depend on small locally-declared interfaces so they can be tested
// with hand-written fakes and wired to concrete implementations in cmd/api.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gomeasure/internal/core"
	"gomeasure/internal/types"
)

// AddressResolver turns free text into address candidates. Implementations
// never fail; any problem yields an empty list.
type AddressResolver interface {
	Resolve(ctx context.Context, text string) []types.AddressCandidate
}

// GeocodeMetrics records the size of each search answer.
type GeocodeMetrics interface {
	RecordGeocodeResults(ctx context.Context, count int)
}

// GeocodeHandler serves the address search endpoint.
type GeocodeHandler struct {
	resolver AddressResolver
	metrics  GeocodeMetrics
	logger   *slog.Logger
}

// NewGeocodeHandler creates a GeocodeHandler. A nil metrics recorder is allowed.
func NewGeocodeHandler(resolver AddressResolver, m GeocodeMetrics, l *slog.Logger) *GeocodeHandler {
	if l == nil {
		l = slog.Default()
	}
	return &GeocodeHandler{
		resolver: resolver,
		metrics:  m,
		logger:   l,
	}
}

// RegisterRoutes mounts the search route on the provided chi.Router.
func (h *GeocodeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/geocode", h.Search)
}

// Search handles GET /v1/geocode?q=.
//
// The response is always 200 with a bare JSON array. Short queries, upstream
// failures and timeouts all produce [] rather than an error payload, so
// type-ahead clients never have to branch on error shapes.
func (h *GeocodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	results := h.resolver.Resolve(r.Context(), q)
	if results == nil {
		results = []types.AddressCandidate{}
	}

	if h.metrics != nil {
		h.metrics.RecordGeocodeResults(r.Context(), len(results))
	}
	requestLogger(r, h.logger).DebugContext(r.Context(), "address search answered",
		"query_length", len(q),
		"results", len(results),
	)

	core.JSON(w, r, http.StatusOK, results)
}
