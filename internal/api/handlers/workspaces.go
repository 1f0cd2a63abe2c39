package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gomeasure/internal/core"
	"gomeasure/internal/measure"
	"gomeasure/internal/types"
	"gomeasure/internal/workspace"
)

// WorkspaceStore holds measurement workspaces.
// Mirrors the workspace.Store methods used by this handler.
type WorkspaceStore interface {
	Create(opts ...measure.ViewportOption) (*workspace.Workspace, error)
	Get(id string) (*workspace.Workspace, error)
	Delete(id string) error
}

// --- Request/Response Models ---

// CreateWorkspaceRequest is the optional body of POST /v1/workspaces.
type CreateWorkspaceRequest struct {
	Center *types.LatLon `json:"center,omitempty"`
	Zoom   *int          `json:"zoom,omitempty" validate:"omitempty,min=0,max=22"`
}

// CenterRequest is the address selection event posted to /center.
type CenterRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

// MeasurementRequest toggles the drawing tool.
type MeasurementRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// ZoomRequest sets the map zoom. Values are clamped to the supported range.
type ZoomRequest struct {
	Zoom *int `json:"zoom" validate:"required,min=0,max=22"`
}

// CommitResponse is the saved area reading.
type CommitResponse struct {
	SquareFeet int64 `json:"square_feet"`
}

// --- Handler ---

// WorkspaceHandler exposes drawing sessions and viewports over HTTP.
type WorkspaceHandler struct {
	store     WorkspaceStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(store WorkspaceStore, v *core.Validator, l *slog.Logger) *WorkspaceHandler {
	if l == nil {
		l = slog.Default()
	}
	return &WorkspaceHandler{
		store:     store,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts workspace routes on the provided chi.Router.
func (h *WorkspaceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/workspaces", func(r chi.Router) {
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/drawing/begin", h.BeginDrawing)
			r.Post("/drawing/cancel", h.CancelDrawing)
			r.Post("/polygon", h.CreatePolygon)
			r.Put("/polygon", h.EditPolygon)
			r.Delete("/polygon", h.DeletePolygon)
			r.Post("/commit", h.Commit)
			r.Post("/center", h.Center)
			r.Put("/measurement", h.ToggleMeasurement)
			r.Put("/zoom", h.SetZoom)
		})
	})
}

// --- Handler Methods ---

// Create handles POST /v1/workspaces. The body is optional; when present it
// may override the initial center and zoom.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var opts []measure.ViewportOption
	if r.ContentLength != 0 {
		var req CreateWorkspaceRequest
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
		if err := h.validator.ValidateStruct(req); err != nil {
			core.Error(w, r, err)
			return
		}
		if req.Center != nil {
			opts = append(opts, measure.WithCenter(req.Center.Lat, req.Center.Lon))
		}
		if req.Zoom != nil {
			opts = append(opts, measure.WithZoom(*req.Zoom))
		}
	}

	ws, err := h.store.Create(opts...)
	if err != nil {
		requestLogger(r, h.logger).WarnContext(r.Context(), "workspace create refused", "error", err)
		core.Error(w, r, err)
		return
	}

	requestLogger(r, h.logger).InfoContext(r.Context(), "workspace created", "workspace_id", ws.ID)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: ws.Snapshot()})
}

// Get handles GET /v1/workspaces/{id}.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeSnapshot(w, r, ws)
}

// Delete handles DELETE /v1/workspaces/{id}.
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		core.Error(w, r, err)
		return
	}
	requestLogger(r, h.logger).InfoContext(r.Context(), "workspace deleted", "workspace_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// BeginDrawing handles POST /v1/workspaces/{id}/drawing/begin.
func (h *WorkspaceHandler) BeginDrawing(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ws.Session.BeginDrawing()
	writeSnapshot(w, r, ws)
}

// CancelDrawing handles POST /v1/workspaces/{id}/drawing/cancel.
func (h *WorkspaceHandler) CancelDrawing(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ws.Session.CancelDrawing()
	writeSnapshot(w, r, ws)
}

// CreatePolygon handles POST /v1/workspaces/{id}/polygon. The new polygon
// replaces any existing one.
func (h *WorkspaceHandler) CreatePolygon(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ring, ok := decodeRing(w, r, h.validator)
	if !ok {
		return
	}
	ws.Session.Create(ring)
	writeSnapshot(w, r, ws)
}

// EditPolygon handles PUT /v1/workspaces/{id}/polygon.
func (h *WorkspaceHandler) EditPolygon(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ring, ok := decodeRing(w, r, h.validator)
	if !ok {
		return
	}
	if _, err := ws.Session.Edit(ring); err != nil {
		if errors.Is(err, measure.ErrNoActivePolygon) {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeConflictNoPolygon,
				"there is no polygon to edit; create one first",
				err,
			))
			return
		}
		core.Error(w, r, err)
		return
	}
	writeSnapshot(w, r, ws)
}

// DeletePolygon handles DELETE /v1/workspaces/{id}/polygon. The area
// reading drops to zero.
func (h *WorkspaceHandler) DeletePolygon(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ws.Session.Delete()
	writeSnapshot(w, r, ws)
}

// Commit handles POST /v1/workspaces/{id}/commit. A zero reading cannot be
// saved.
func (h *WorkspaceHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sqft, ok := ws.Session.Commit()
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeConflictEmptyArea,
			"there is no measured area to save",
			nil,
		))
		return
	}

	requestLogger(r, h.logger).InfoContext(r.Context(), "area committed",
		"workspace_id", ws.ID,
		"square_feet", sqft,
	)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: CommitResponse{SquareFeet: sqft}})
}

// Center handles POST /v1/workspaces/{id}/center, the address selection
// event. The map recenters on the point and moves the single marker there.
func (h *WorkspaceHandler) Center(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req CenterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := ws.Viewport.CenterOn(*req.Lat, *req.Lon); err != nil {
		core.Error(w, r, err)
		return
	}
	writeSnapshot(w, r, ws)
}

// ToggleMeasurement handles PUT /v1/workspaces/{id}/measurement. Hiding the
// tool leaves the drawing session untouched.
func (h *WorkspaceHandler) ToggleMeasurement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req MeasurementRequest
	if !h.decode(w, r, &req) {
		return
	}
	ws.Viewport.ToggleMeasurement(*req.Visible)
	writeSnapshot(w, r, ws)
}

// SetZoom handles PUT /v1/workspaces/{id}/zoom.
func (h *WorkspaceHandler) SetZoom(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req ZoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	ws.Viewport.SetZoom(*req.Zoom)
	writeSnapshot(w, r, ws)
}

// --- Helpers ---

func (h *WorkspaceHandler) lookup(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return nil, false
	}
	return ws, true
}

func (h *WorkspaceHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.DecodeJSON(w, r, dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	if err := h.validator.ValidateStruct(dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	return true
}

// requestLogger returns the request-scoped logger installed by
// core.RequestLogger, or base when the handler runs outside that chain.
func requestLogger(r *http.Request, base *slog.Logger) *slog.Logger {
	if types.GetRequestID(r.Context()) == "" {
		return base
	}
	return types.LoggerFromContext(r.Context())
}

func writeSnapshot(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: ws.Snapshot()})
}
