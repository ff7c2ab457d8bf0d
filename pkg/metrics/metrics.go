package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schemagate"

// Result label values.
const (
	ResultValid    = "valid"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultFailOpen = "fail_open"
)

// Metrics holds every collector the gateway updates.
type Metrics struct {
	// CacheHits counts GetOrCompile calls served from the cache.
	CacheHits prometheus.Counter
	// CacheMisses counts GetOrCompile calls that had to compile.
	CacheMisses prometheus.Counter
	// CacheEvictions counts least-used evictions.
	CacheEvictions prometheus.Counter
	// CacheEntries is the current number of cached validators.
	CacheEntries prometheus.Gauge
	// CompileFailures counts schema documents that failed to load or compile.
	CompileFailures prometheus.Counter
	// PreloadErrors counts failures during startup preload.
	PreloadErrors prometheus.Counter

	// Requests counts validated requests.
	// Labels: result, kind
	Requests *prometheus.CounterVec
	// Duration observes the time spent validating a request, in seconds.
	Duration prometheus.Histogram
}

// New creates the gateway metrics and registers them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "hits_total",
			Help:      "Validator lookups served from the cache.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "misses_total",
			Help:      "Validator lookups that compiled a schema document.",
		}),
		CacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "evictions_total",
			Help:      "Least-used validators evicted to make room.",
		}),
		CacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "entries",
			Help:      "Validators currently cached.",
		}),
		CompileFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "compile_failures_total",
			Help:      "Schema documents that could not be read, parsed or compiled.",
		}),
		PreloadErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator_cache",
			Name:      "preload_errors_total",
			Help:      "Errors while preloading schema documents at startup.",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validated_requests_total",
			Help:      "Requests that went through schema validation.",
		}, []string{"result", "kind"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent resolving, compiling and validating a request.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
}

// Nop returns unregistered metrics, for components built without any.
func Nop() *Metrics {
	return New(nil)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
