package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := NewAppError(ErrCodeValidationInvalidLat, "latitude must be between -90 and 90", nil)

	assert.Equal(t, "validation_invalid_latitude: latitude must be between -90 and 90", appErr.Error())
	assert.Nil(t, appErr.Unwrap())
}

func TestAppErrorErrorsAsThroughWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "upstream request failed", cause)
	wrapped := fmt.Errorf("geocode: %w", appErr)

	var got *AppError
	require.True(t, errors.As(wrapped, &got))
	assert.Equal(t, ErrCodeUpstreamUnavailable, got.Code)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppErrorWithDetails(ErrCodeValidationInvalidRing, "bad ring", nil, map[string]any{"index": 2})

	merged := original.WithDetails(map[string]any{"vertices": 5, "index": 3})

	assert.Equal(t, map[string]any{"index": 2}, original.Details, "original must not be mutated")
	assert.Equal(t, map[string]any{"index": 3, "vertices": 5}, merged.Details)
	assert.Equal(t, original.Code, merged.Code)
}

func TestErrorCodeHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidLat, http.StatusBadRequest},
		{ErrCodeValidationInvalidRing, http.StatusBadRequest},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeRateLimit, http.StatusTooManyRequests},
		{ErrCodeLimitWorkspaces, http.StatusTooManyRequests},
		{ErrCodeNotFoundWorkspace, http.StatusNotFound},
		{ErrCodeConflictNoPolygon, http.StatusConflict},
		{ErrCodeConflictEmptyArea, http.StatusConflict},
		{ErrCodeConflictDrawingMode, http.StatusConflict},
		{ErrCodeUpstreamTimeout, http.StatusGatewayTimeout},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeUpstreamRejected, http.StatusBadGateway},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
			assert.Equal(t, tt.want, NewAppError(tt.code, "x", nil).HTTPStatus())
		})
	}
}
