package validation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"

	"github.com/getmockd/schemagate/pkg/apierror"
)

// Reject converts a kin-openapi routing or validation error into an
// *apierror.Error of kind KindValidationFailure. The status is the one
// kin-openapi associates with the failure (400, 404, 405, 415 or 422),
// 401 for unmet security requirements, defaulting to 400.
func Reject(err error) *apierror.Error {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}

	converted := openapi3filter.ConvertErrors(err)
	status := apierror.StatusOf(converted, http.StatusBadRequest)
	var secErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &secErr) {
		status = http.StatusUnauthorized
	}

	return apierror.New(apierror.KindValidationFailure, describe(err, converted), status, err)
}

// describe builds the human-readable message for a rejected request.
func describe(original, converted error) string {
	var vErr *openapi3filter.ValidationError
	if !errors.As(converted, &vErr) || vErr.Title == "" {
		return original.Error()
	}

	var sb strings.Builder
	sb.WriteString(vErr.Title)
	if vErr.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(vErr.Detail)
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(original, &schemaErr) {
		if path := formatJSONPath(schemaErr.JSONPointer()); path != "" && path != "$" {
			sb.WriteString(" (at ")
			sb.WriteString(path)
			sb.WriteString(")")
		}
	} else if vErr.Source != nil && vErr.Source.Parameter != "" {
		sb.WriteString(" (parameter ")
		sb.WriteString(vErr.Source.Parameter)
		sb.WriteString(")")
	}
	return sb.String()
}

// formatJSONPath converts a JSON pointer parts array to a more readable format
func formatJSONPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	// Convert ["foo", "bar", "0"] to $.foo.bar[0]
	var sb strings.Builder
	sb.WriteString("$")
	for _, part := range parts {
		if part == "" {
			continue
		}
		if isNumeric(part) {
			sb.WriteString("[")
			sb.WriteString(part)
			sb.WriteString("]")
		} else {
			sb.WriteString(".")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

// isNumeric checks if a string is a number
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
