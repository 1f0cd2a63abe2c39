package measure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomeasure/internal/types"
)

func TestNewViewport_Defaults(t *testing.T) {
	snap := NewViewport().Snapshot()

	assert.Equal(t, types.LatLon{Lat: 38.5816, Lon: -121.4944}, snap.Center)
	assert.Equal(t, 12, snap.Zoom)
	assert.Nil(t, snap.Marker)
	assert.True(t, snap.MeasurementVisible)
	assert.False(t, snap.LabelsVisible)
}

func TestNewViewport_Options(t *testing.T) {
	snap := NewViewport(WithCenter(34.05, -118.24), WithZoom(99)).Snapshot()

	assert.Equal(t, types.LatLon{Lat: 34.05, Lon: -118.24}, snap.Center)
	assert.Equal(t, MaxZoom, snap.Zoom)
}

func TestViewport_CenterOnPlacesSingleMarker(t *testing.T) {
	v := NewViewport()

	require.NoError(t, v.CenterOn(38.6089, -121.4464))
	require.NoError(t, v.CenterOn(38.5767, -121.5005))

	snap := v.Snapshot()
	assert.Equal(t, types.LatLon{Lat: 38.5767, Lon: -121.5005}, snap.Center)
	assert.Equal(t, FocusZoom, snap.Zoom)
	require.NotNil(t, snap.Marker)
	assert.Equal(t, snap.Center, *snap.Marker, "only the latest marker remains")
	assert.True(t, snap.LabelsVisible)
}

func TestViewport_CenterOnRejectsInvalidCoordinates(t *testing.T) {
	v := NewViewport()

	err := v.CenterOn(91, -121)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeValidationInvalidLat, appErr.Code)

	assert.Nil(t, v.Snapshot().Marker, "rejected selection leaves the view untouched")
}

func TestViewport_ToggleMeasurementLeavesSessionAlone(t *testing.T) {
	v := NewViewport()
	s := NewDrawingSession()
	sqft := s.Create(square(38.58, -121.49, 0.0003))

	v.ToggleMeasurement(false)
	assert.False(t, v.Snapshot().MeasurementVisible)
	v.ToggleMeasurement(true)
	assert.True(t, v.Snapshot().MeasurementVisible)

	assert.Equal(t, sqft, s.AreaSqFt())
}

func TestViewport_SetZoomClampsAndDrivesLabels(t *testing.T) {
	v := NewViewport()

	assert.Equal(t, MinZoom, v.SetZoom(0))
	assert.False(t, v.LabelsVisible())
	assert.Equal(t, 17, v.SetZoom(17))
	assert.False(t, v.LabelsVisible())
	assert.Equal(t, 18, v.SetZoom(18))
	assert.True(t, v.LabelsVisible())
	assert.Equal(t, MaxZoom, v.SetZoom(25))
}

func TestViewport_SnapshotMarkerIsACopy(t *testing.T) {
	v := NewViewport()
	require.NoError(t, v.CenterOn(38.6, -121.4))

	snap := v.Snapshot()
	snap.Marker.Lat = 0

	assert.Equal(t, 38.6, v.Snapshot().Marker.Lat)
}
