package measure

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"gomeasure/internal/types"
)

// DrawingState is the lifecycle position of a DrawingSession.
type DrawingState int

const (
	StateEmpty DrawingState = iota
	StateDrawing
	StateHasPolygon
)

func (s DrawingState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDrawing:
		return "drawing"
	case StateHasPolygon:
		return "has_polygon"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s DrawingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *DrawingState) UnmarshalText(text []byte) error {
	for _, st := range []DrawingState{StateEmpty, StateDrawing, StateHasPolygon} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("measure: unknown drawing state %q", text)
}

// ErrNoActivePolygon is returned by Edit when there is nothing to edit.
var ErrNoActivePolygon = errors.New("measure: no active polygon")

// AreaListener receives the square-foot figure after every create, edit,
// delete and commit.
type AreaListener func(sqft int64)

// SessionSnapshot is a point-in-time copy of a DrawingSession.
type SessionSnapshot struct {
	State    DrawingState `json:"state"`
	Polygon  types.Ring   `json:"polygon"`
	AreaSqFt int64        `json:"area_sq_ft"`
}

// DrawingSession holds at most one active polygon and its area. Creating a
// polygon replaces the previous one; areas are never summed. It is safe for
// concurrent use.
//
// Listeners run synchronously after the state lock is released, so they may
// read the session. Mutations and their notifications are serialized, so
// listeners observe readings in the order the session took them. A listener
// must not mutate the session it is registered on.
type DrawingSession struct {
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     DrawingState
	prior     DrawingState
	polygon   types.Ring
	sqft      int64
	listeners []AreaListener
}

// NewDrawingSession returns an empty session.
func NewDrawingSession() *DrawingSession {
	return &DrawingSession{state: StateEmpty}
}

// OnAreaChange registers a listener.
func (s *DrawingSession) OnAreaChange(fn AreaListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// BeginDrawing enters drawing mode, remembering where to return on cancel.
// It is a no-op while already drawing.
func (s *DrawingSession) BeginDrawing() DrawingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDrawing {
		s.prior = s.state
		s.state = StateDrawing
	}
	return s.state
}

// CancelDrawing leaves drawing mode without touching the polygon.
func (s *DrawingSession) CancelDrawing() DrawingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDrawing {
		s.state = s.prior
	}
	return s.state
}

// Create stores ring as the sole active polygon and returns its area.
func (s *DrawingSession) Create(ring types.Ring) int64 {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.polygon = append(types.Ring{}, ring...)
	s.sqft = DisplaySquareFeet(ring)
	s.state = StateHasPolygon
	sqft, listeners := s.sqft, s.listeners
	s.mu.Unlock()

	notify(listeners, sqft)
	return sqft
}

// Edit replaces the active polygon's vertices and returns the new area.
func (s *DrawingSession) Edit(ring types.Ring) (int64, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.polygon == nil {
		s.mu.Unlock()
		return 0, ErrNoActivePolygon
	}
	s.polygon = append(types.Ring{}, ring...)
	s.sqft = DisplaySquareFeet(ring)
	s.state = StateHasPolygon
	sqft, listeners := s.sqft, s.listeners
	s.mu.Unlock()

	notify(listeners, sqft)
	return sqft, nil
}

// Delete clears the active polygon. Deleting from an empty session is
// allowed and still reports zero.
func (s *DrawingSession) Delete() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.clearLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, 0)
}

// Commit hands off the current reading. It reports false, changing nothing,
// when the reading is zero; otherwise the session is cleared for the next
// measurement.
func (s *DrawingSession) Commit() (int64, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.sqft <= 0 {
		s.mu.Unlock()
		return 0, false
	}
	sqft := s.sqft
	s.clearLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, 0)
	return sqft, true
}

// AreaSqFt returns the current reading.
func (s *DrawingSession) AreaSqFt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sqft
}

// Snapshot copies the session state.
func (s *DrawingSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		State:    s.state,
		Polygon:  slices.Clone(s.polygon),
		AreaSqFt: s.sqft,
	}
}

func (s *DrawingSession) clearLocked() {
	s.polygon = nil
	s.sqft = 0
	s.state = StateEmpty
	s.prior = StateEmpty
}

func notify(listeners []AreaListener, sqft int64) {
	for _, fn := range listeners {
		fn(sqft)
	}
}
