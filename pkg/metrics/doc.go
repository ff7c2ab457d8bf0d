// Package metrics exposes Prometheus metrics for the validator cache and the
// validation middleware.
//
// Metrics are created against a prometheus.Registerer so tests can use a
// private registry; passing nil creates unregistered collectors.
//
// # Label Conventions
//
//   - result: "valid", "invalid", "error", "fail_open"
//   - kind: an apierror.Kind string, or "" for valid requests
package metrics
