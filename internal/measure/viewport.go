package measure

import (
	"sync"

	"gomeasure/internal/types"
)

// Viewport defaults: downtown Sacramento at city zoom.
const (
	DefaultCenterLat = 38.5816
	DefaultCenterLon = -121.4944
	DefaultZoom      = 12

	// FocusZoom is the close zoom used after an address is picked.
	FocusZoom = 18
	// LabelZoom is the threshold at which house-number labels are drawn.
	LabelZoom = 18

	MinZoom = 3
	MaxZoom = 20
)

// ViewportSnapshot is a point-in-time copy of a Viewport.
type ViewportSnapshot struct {
	Center             types.LatLon  `json:"center"`
	Zoom               int           `json:"zoom"`
	Marker             *types.LatLon `json:"marker"`
	MeasurementVisible bool          `json:"measurement_visible"`
	LabelsVisible      bool          `json:"labels_visible"`
}

// Viewport tracks what the map shows: center, zoom, the single selection
// marker and whether the drawing tool is visible. It never touches area
// state. It is safe for concurrent use.
type Viewport struct {
	mu                 sync.Mutex
	center             types.LatLon
	zoom               int
	marker             *types.LatLon
	measurementVisible bool
}

// ViewportOption is a functional option for configuring a Viewport.
type ViewportOption func(*Viewport)

// WithCenter overrides the initial center.
func WithCenter(lat, lon float64) ViewportOption {
	return func(v *Viewport) {
		v.center = types.LatLon{Lat: lat, Lon: lon}
	}
}

// WithZoom overrides the initial zoom (clamped).
func WithZoom(z int) ViewportOption {
	return func(v *Viewport) {
		v.zoom = clampZoom(z)
	}
}

// NewViewport returns a viewport at the default view with the measurement
// tool shown and no marker.
func NewViewport(opts ...ViewportOption) *Viewport {
	v := &Viewport{
		center:             types.LatLon{Lat: DefaultCenterLat, Lon: DefaultCenterLon},
		zoom:               DefaultZoom,
		measurementVisible: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CenterOn handles an address selection: recenters at FocusZoom and replaces
// any previous marker with one at the selected point.
func (v *Viewport) CenterOn(lat, lon float64) error {
	if err := types.ValidateCoordinate(lat, lon); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	p := types.LatLon{Lat: lat, Lon: lon}
	v.center = p
	v.zoom = FocusZoom
	v.marker = &p
	return nil
}

// ToggleMeasurement shows or hides the drawing tool.
func (v *Viewport) ToggleMeasurement(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.measurementVisible = visible
}

// SetZoom sets the zoom level clamped to [MinZoom, MaxZoom] and returns the
// level applied.
func (v *Viewport) SetZoom(z int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = clampZoom(z)
	return v.zoom
}

// LabelsVisible reports whether the zoom is close enough for address labels.
func (v *Viewport) LabelsVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom >= LabelZoom
}

// Snapshot copies the viewport state.
func (v *Viewport) Snapshot() ViewportSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := ViewportSnapshot{
		Center:             v.center,
		Zoom:               v.zoom,
		MeasurementVisible: v.measurementVisible,
		LabelsVisible:      v.zoom >= LabelZoom,
	}
	if v.marker != nil {
		m := *v.marker
		snap.Marker = &m
	}
	return snap
}

func clampZoom(z int) int {
	return min(max(z, MinZoom), MaxZoom)
}
