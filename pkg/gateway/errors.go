package gateway

import (
	"log/slog"
	"net/http"

	"github.com/getmockd/schemagate/pkg/apierror"
)

// ErrorHandler receives every rejected request. requestID correlates the
// response with the gateway logs.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err *apierror.Error, requestID string)

// TranslateError converts err to the uniform error type. An *apierror.Error
// is passed through unchanged; anything else becomes a KindSchemaParsing
// error tagged with level, keeping the status of err when it carries one.
func TranslateError(err error, level string) *apierror.Error {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}
	status := apierror.StatusOf(err, http.StatusInternalServerError)
	return apierror.New(apierror.KindSchemaParsing, "OpenApiValidator Error at "+level, status, err)
}

// ProblemErrorHandler logs the error and answers with RFC 7807 Problem
// Details.
func ProblemErrorHandler(logger *slog.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err *apierror.Error, requestID string) {
		logger.Error("OpenApiValidator Error",
			"request_id", requestID,
			"kind", err.Kind,
			"status", err.Status,
			"path", r.URL.Path,
			"error", err)
		w.Header().Set(HeaderRequestID, requestID)
		apierror.Write(w, err, requestID)
	}
}
