package apierror

import (
	"encoding/json"
	"net/http"
)

// ContentTypeProblem is the media type of Problem responses.
const ContentTypeProblem = "application/problem+json"

// Problem is the HTTP response body for gateway failures.
// It follows RFC 7807 Problem Details format.
type Problem struct {
	// Type identifies the error kind
	Type Kind `json:"type"`

	// Title is a short summary
	Title string `json:"title"`

	// Status is the HTTP status code
	Status int `json:"status"`

	// Detail carries the underlying cause of client errors
	Detail string `json:"detail,omitempty"`

	// Instance is the request correlation id
	Instance string `json:"instance,omitempty"`
}

// NewProblem creates a Problem from an Error.
func NewProblem(err *Error, instance string) *Problem {
	p := &Problem{
		Type:     err.Kind,
		Title:    err.Message,
		Status:   err.Status,
		Instance: instance,
	}
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	// Schema failures carry server paths; their cause stays in the logs.
	if err.Cause != nil && err.Kind != KindSchemaParsing {
		p.Detail = err.Cause.Error()
	}
	return p
}

// WriteResponse writes the problem as JSON to the http.ResponseWriter.
func (p *Problem) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentTypeProblem)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Write renders err as a Problem response.
func Write(w http.ResponseWriter, err *Error, instance string) {
	NewProblem(err, instance).WriteResponse(w)
}
