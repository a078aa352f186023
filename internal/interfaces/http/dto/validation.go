package dto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// FromBindError converts a gin binding failure into an envelope
func FromBindError(err error) Response {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewErrorResponse(http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge,
			"Request body exceeds maximum allowed size")
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ValidationDetail, 0, len(validationErrs))
		for _, e := range validationErrs {
			details = append(details, ValidationDetail{
				Field:   e.Field(),
				Message: ValidationMessage(e),
			})
		}
		return NewValidationErrorResponse("Request validation failed", details)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return NewValidationErrorResponse("Request body is required", nil)
	case errors.As(err, &typeErr):
		return NewValidationErrorResponse("Request validation failed", []ValidationDetail{
			{Field: typeErr.Field, Message: "Must be of type " + typeErr.Type.String()},
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return NewValidationErrorResponse("Request body is not valid JSON", nil)
	}
	return NewValidationErrorResponse(err.Error(), nil)
}

// ValidationMessage returns a readable message for a failed validation tag
func ValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}
