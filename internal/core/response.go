package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gomeasure/internal/types"
)

// maxRequestBodySize caps request bodies. A ring at the vertex limit is a few
// tens of kilobytes, so 1 MB leaves ample room.
const maxRequestBodySize = 1 << 20

// APIResponse is the standard envelope for successful API responses.
// The address search endpoint is the one exception: it returns a bare array.
type APIResponse struct {
	Data interface{} `json:"data,omitempty"`
}

// APIErrorResponse is the standard envelope for all error API responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// JSON marshals data and writes it with the given status. A value that cannot
// be marshalled (a NaN area, for instance) is logged and answered with a 500
// envelope instead.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		types.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to marshal response",
			"status", status,
			"error", err,
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(APIErrorResponse{Error: ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "failed to marshal response",
			RequestID: types.GetRequestID(r.Context()),
		}})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes the error envelope for err.
//
// An *types.AppError anywhere in the chain supplies the code, message and
// details; its wrapped cause is never sent. Any other error becomes an opaque
// internal_unexpected_error. Server-side failures (5xx) are logged with the
// full chain through the request-scoped logger.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	detail := ErrorDetail{
		Code:      string(types.ErrCodeInternalUnexpected),
		Message:   "an unexpected error occurred",
		RequestID: types.GetRequestID(ctx),
	}
	status := http.StatusInternalServerError

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		detail.Code = string(appErr.Code)
		detail.Message = appErr.Message
		detail.Details = appErr.Details
		status = appErr.HTTPStatus()
	}

	if status >= http.StatusInternalServerError {
		types.LoggerFromContext(ctx).LogAttrs(ctx, slog.LevelError, "request failed",
			slog.String("code", detail.Code),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}

	JSON(w, r, status, APIErrorResponse{Error: detail})
}

// DecodeJSON reads exactly one JSON value from the request body into dst.
// Bodies over 1 MB, unknown fields, type mismatches, empty bodies and trailing
// values are all rejected with a 400 validation_invalid_json AppError; where
// the decoder names the offending field it is reported in the details.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return invalidJSON("request body must contain a single JSON object", nil, nil)
	}
	return nil
}

func invalidJSON(message string, cause error, details map[string]any) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidJSON, message, cause, details)
}

// mapDecodeError translates a json.Decoder failure into a client-safe AppError.
func mapDecodeError(err error) *types.AppError {
	var (
		maxBytesErr *http.MaxBytesError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return invalidJSON("request body is too large", err,
			map[string]any{"limit_bytes": maxBytesErr.Limit})
	case errors.As(err, &syntaxErr):
		return invalidJSON("malformed JSON in request body", err,
			map[string]any{"offset": syntaxErr.Offset})
	case errors.As(err, &typeErr):
		return invalidJSON(fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type), err,
			map[string]any{"field": typeErr.Field, "expected": typeErr.Type.String()})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		// encoding/json has no typed error for DisallowUnknownFields.
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return invalidJSON(fmt.Sprintf("unknown field %q in request body", field), err,
			map[string]any{"field": field})
	case errors.Is(err, io.EOF):
		return invalidJSON("request body must not be empty", err, nil)
	default:
		return invalidJSON("invalid JSON in request body", err, nil)
	}
}
