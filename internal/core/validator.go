package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"gomeasure/internal/types"
)

// Validator wraps go-playground/validator and registers domain-specific rules.
//
// Custom tags:
//   - ring_size: a types.Ring holds at most types.MaxRingVertices vertices.
//     Rings with fewer than three vertices are valid; they measure zero.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator and registers custom validation tags.
// Field names in errors use the json tag so they match the request body.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for malformed tag names, which are constants here.
	_ = v.RegisterValidation("ring_size", validateRingSize)

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates s and converts failures into a validation
// AppError whose details list each offending field:
//
//	{"fields": {"ring[3].lat": "latitude", "zoom": "max"}}
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming error (nil or non-struct).
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make(map[string]string, len(verrs))
	code := types.ErrCodeValidationFailed
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Tag()
		code = codeForField(fe, code)
	}

	return types.NewAppErrorWithDetails(
		code,
		"request validation failed",
		err,
		map[string]any{"fields": fields},
	)
}

// fieldPath drops the top-level struct name from the namespace
// ("createPolygonRequest.ring[3].lat" -> "ring[3].lat").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// codeForField picks the most specific error code for the first failing
// field; later fields keep whatever the first one chose.
func codeForField(fe validator.FieldError, current types.ErrorCode) types.ErrorCode {
	if current != types.ErrCodeValidationFailed {
		return current
	}
	switch fe.Tag() {
	case "required":
		return types.ErrCodeValidationMissingField
	case "latitude":
		return types.ErrCodeValidationInvalidLat
	case "longitude":
		return types.ErrCodeValidationInvalidLon
	case "ring_size":
		return types.ErrCodeValidationInvalidRing
	}
	if fe.Field() == "zoom" {
		return types.ErrCodeValidationInvalidZoom
	}
	return current
}

func validateRingSize(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	return field.Len() <= types.MaxRingVertices
}
