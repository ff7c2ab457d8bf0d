// Package apierror defines the error type every gateway failure is reported
// with, and its RFC 7807 Problem Details rendering.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an Error with the failure class. The string values are the
// identifiers clients of the protocol server already match on.
type Kind string

// Error kinds.
const (
	// KindSchemaParsing: the schema document could not be read, parsed or
	// compiled, or an untyped error escaped a validation step.
	KindSchemaParsing Kind = "OpenApiSchema_ParsingError"

	// KindConfigMissing: a domain-qualified schema is mandated by
	// configuration but not installed.
	KindConfigMissing Kind = "Config_AppConfig_Layer2_Missing"

	// KindValidationFailure: the request does not conform to its schema.
	KindValidationFailure Kind = "OpenApiSchema_ValidationError"

	// KindPreload: warm-up of the validator cache failed. Only ever logged.
	KindPreload Kind = "OpenApiSchema_PreloadError"
)

// Error is the uniform gateway error.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code to answer with.
	Status int
	Cause  error
}

// New creates an Error. A zero status defaults to 500.
func New(kind Kind, message string, status int, cause error) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code.
func (e *Error) StatusCode() int {
	return e.Status
}

// As reports whether err is, or wraps, an *Error and returns it.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCoder is implemented by errors that carry an HTTP status, such as
// kin-openapi's ValidationError.
type StatusCoder interface {
	StatusCode() int
}

// StatusOf returns the status carried by err or any error it wraps, or
// fallback when there is none.
func StatusOf(err error, fallback int) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code != 0 {
			return code
		}
	}
	return fallback
}
