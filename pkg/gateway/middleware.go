package gateway

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/schemagate/pkg/apierror"
	"github.com/getmockd/schemagate/pkg/logging"
	"github.com/getmockd/schemagate/pkg/metrics"
	"github.com/getmockd/schemagate/pkg/schema"
	"github.com/getmockd/schemagate/pkg/validation"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-Id"

const maxValidationBodySize = 10 << 20 // 10MB defense-in-depth

// ValidatorSource provides compiled validators by key. *cache.Cache
// implements it.
type ValidatorSource interface {
	GetOrCompile(key schema.Key) (*validation.Validator, error)
}

// Middleware validates requests before they reach the wrapped handler.
type Middleware struct {
	next      http.Handler
	resolver  *Resolver
	source    ValidatorSource
	level     string
	failOpen  bool
	onError   ErrorHandler
	logger    *slog.Logger
	metrics   *metrics.Metrics
	requestID func() string
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLevel sets the protocol server level errors are tagged with.
func WithLevel(level string) Option {
	return func(m *Middleware) { m.level = level }
}

// WithFailOpen lets requests whose schema cannot be compiled through to the
// next handler instead of rejecting them.
func WithFailOpen(failOpen bool) Option {
	return func(m *Middleware) { m.failOpen = failOpen }
}

// WithErrorHandler replaces the default Problem Details error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) {
		if h != nil {
			m.onError = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) { m.logger = logging.Component(logger, "validator") }
}

// WithMetrics sets the metrics the middleware updates.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// NewMiddleware wraps next with schema validation.
func NewMiddleware(next http.Handler, resolver *Resolver, source ValidatorSource, opts ...Option) *Middleware {
	m := &Middleware{
		next:      next,
		resolver:  resolver,
		source:    source,
		logger:    logging.Nop(),
		metrics:   metrics.Nop(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.onError == nil {
		m.onError = ProblemErrorHandler(m.logger)
	}
	return m
}

// ServeHTTP implements http.Handler.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = m.requestID()
	}

	body, readErr := readBody(r)
	if readErr != nil {
		m.reject(w, r, readErr, requestID, start)
		return
	}

	key, err := m.resolver.Resolve(ExtractContext(body))
	if err != nil {
		m.reject(w, r, TranslateError(err, m.level), requestID, start)
		return
	}

	validator, err := m.source.GetOrCompile(key)
	if err != nil {
		if m.failOpen {
			m.logger.Warn("schema unavailable, passing request through unvalidated",
				"request_id", requestID, "key", key, "error", err)
			m.observe(metrics.ResultFailOpen, "", start)
			restoreBody(r, body)
			m.next.ServeHTTP(w, r)
			return
		}
		m.reject(w, r, TranslateError(err, m.level), requestID, start)
		return
	}

	finished := false
	vreq := validation.NewRequest(r)
	validator.Run(vreq, func(err error) {
		finished = true
		if err != nil {
			m.reject(w, r, TranslateError(err, m.level), requestID, start)
			return
		}
		if route := vreq.Route(); route != nil {
			m.logger.Debug("request valid", "request_id", requestID, "key", key, "route", route.Path)
		}
		m.observe(metrics.ResultValid, "", start)
		restoreBody(r, body)
		m.next.ServeHTTP(w, r)
	})
	if !finished {
		m.reject(w, r, TranslateError(validation.ErrIncomplete, m.level), requestID, start)
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err *apierror.Error, requestID string, start time.Time) {
	result := metrics.ResultError
	if err.Kind == apierror.KindValidationFailure || err.Kind == apierror.KindConfigMissing {
		result = metrics.ResultInvalid
	}
	m.observe(result, string(err.Kind), start)
	m.onError(w, r, err, requestID)
}

func (m *Middleware) observe(result, kind string, start time.Time) {
	m.metrics.Requests.WithLabelValues(result, kind).Inc()
	m.metrics.Duration.Observe(time.Since(start).Seconds())
}

// readBody buffers the request body and restores it for the next reader.
// Bodies over maxValidationBodySize are rejected, never truncated.
func readBody(r *http.Request) ([]byte, *apierror.Error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxValidationBodySize+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, apierror.New(apierror.KindValidationFailure, "failed to read request body", http.StatusBadRequest, err)
	}
	if len(body) > maxValidationBodySize {
		return nil, apierror.New(apierror.KindValidationFailure, "request body too large", http.StatusRequestEntityTooLarge, nil)
	}
	restoreBody(r, body)
	return body, nil
}

// restoreBody rewinds r.Body to the buffered bytes so the next reader sees
// the request unmodified.
func restoreBody(r *http.Request, body []byte) {
	if body == nil {
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}

// Validate resolves and runs the validator for a single request outside of
// an HTTP server, e.g. from the CLI. The body of r is restored afterwards.
func Validate(r *http.Request, resolver *Resolver, source ValidatorSource, level string) (schema.Key, error) {
	body, readErr := readBody(r)
	if readErr != nil {
		return "", readErr
	}

	key, err := resolver.Resolve(ExtractContext(body))
	if err != nil {
		return "", TranslateError(err, level)
	}
	validator, err := source.GetOrCompile(key)
	if err != nil {
		return key, TranslateError(err, level)
	}
	if err := validator.Validate(r); err != nil {
		return key, TranslateError(err, level)
	}
	return key, nil
}
