// Package errors defines the failure classes of the span intake pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports missing or malformed transport metadata: an empty
// body, a required header present zero or several times, a length mismatch or
// a wrong content type.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// MalformedPayloadError reports a body that does not parse as an
// ExportTraceServiceRequest.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// DecodeError reports a structurally valid envelope carrying a value outside
// the recognized domain, such as an unknown span kind.
type DecodeError struct {
	Field string
	Value int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected %s: %d", e.Field, e.Value)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsMalformed reports whether err is, or wraps, a MalformedPayloadError.
func IsMalformed(err error) bool {
	var m *MalformedPayloadError
	return errors.As(err, &m)
}

// IsDecode reports whether err is, or wraps, a DecodeError.
func IsDecode(err error) bool {
	var d *DecodeError
	return errors.As(err, &d)
}

// HTTPStatus maps a pipeline error to the status code the HTTP layer replies with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case IsValidation(err), IsMalformed(err):
		return http.StatusBadRequest
	case IsDecode(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
