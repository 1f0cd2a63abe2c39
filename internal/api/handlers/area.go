package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gomeasure/internal/core"
	"gomeasure/internal/measure"
	"gomeasure/internal/metrics"
	"gomeasure/internal/types"
)

// AreaMetrics records each computed area.
type AreaMetrics interface {
	RecordAreaMeasurement(ctx context.Context, source string, sqft int64)
}

// RingRequest carries one polygon boundary. Used by POST /v1/area and the
// workspace polygon routes.
type RingRequest struct {
	Ring types.Ring `json:"ring" validate:"required,ring_size,dive"`
}

// AreaResponse is the stateless measurement result.
type AreaResponse struct {
	SquareMeters float64 `json:"square_meters"`
	SquareFeet   int64   `json:"square_feet"`
}

// AreaHandler serves stateless area measurement.
type AreaHandler struct {
	validator *core.Validator
	metrics   AreaMetrics
	logger    *slog.Logger
}

// NewAreaHandler creates an AreaHandler. A nil metrics recorder is allowed.
func NewAreaHandler(v *core.Validator, m AreaMetrics, l *slog.Logger) *AreaHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AreaHandler{
		validator: v,
		metrics:   m,
		logger:    l,
	}
}

// RegisterRoutes mounts the area route on the provided chi.Router.
func (h *AreaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/area", h.Measure)
}

// Measure handles POST /v1/area.
//
// Rings with fewer than three distinct vertices are accepted and measure
// zero. Out-of-range coordinates and oversized rings are rejected with 400.
func (h *AreaHandler) Measure(w http.ResponseWriter, r *http.Request) {
	ring, ok := decodeRing(w, r, h.validator)
	if !ok {
		return
	}

	resp := AreaResponse{
		SquareMeters: measure.Area(ring),
		SquareFeet:   measure.DisplaySquareFeet(ring),
	}

	requestLogger(r, h.logger).DebugContext(r.Context(), "area measured",
		"vertices", len(ring),
		"square_feet", resp.SquareFeet,
	)
	if h.metrics != nil && resp.SquareFeet > 0 {
		h.metrics.RecordAreaMeasurement(r.Context(), metrics.SourceStateless, resp.SquareFeet)
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// decodeRing decodes and validates a RingRequest, writing the error response
// itself when it reports false.
func decodeRing(w http.ResponseWriter, r *http.Request, v *core.Validator) (types.Ring, bool) {
	var req RingRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return nil, false
	}
	if err := v.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return nil, false
	}
	return req.Ring, true
}
