package validation

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

// ErrIncomplete is returned by Validate when a step never called its
// continuation.
var ErrIncomplete = errors.New("validation step did not complete")

// Request is the per-request state shared by the steps of one run.
type Request struct {
	HTTP *http.Request

	// input is populated by the route step.
	input *openapi3filter.RequestValidationInput
}

// NewRequest wraps r for a validator run.
func NewRequest(r *http.Request) *Request {
	return &Request{HTTP: r}
}

// Route returns the operation matched by the route step, or nil.
func (r *Request) Route() *routers.Route {
	if r.input == nil {
		return nil
	}
	return r.input.Route
}

// Step is one stage of a Validator. It must call next exactly once, with
// nil to proceed or an error to abort.
type Step func(req *Request, next func(error))

// Validator is a compiled, immutable request validator.
type Validator struct {
	doc   *openapi3.T
	steps []Step
}

// NewValidator creates a Validator running steps in order.
func NewValidator(doc *openapi3.T, steps ...Step) *Validator {
	return &Validator{doc: doc, steps: steps}
}

// Document returns the OpenAPI document the validator was compiled from.
func (v *Validator) Document() *openapi3.T {
	if v == nil {
		return nil
	}
	return v.doc
}

// Len returns the number of steps.
func (v *Validator) Len() int {
	if v == nil {
		return 0
	}
	return len(v.steps)
}

// Run invokes the steps in order and calls done once: with the first step
// error, or with nil after the last step succeeded. A step is never invoked
// twice, no step runs after a failure, and a continuation called more than
// once is ignored after the first call. A nil or empty Validator accepts
// every request.
//
// If a step never calls its continuation, done is never called.
func (v *Validator) Run(req *Request, done func(error)) {
	var steps []Step
	if v != nil {
		steps = v.steps
	}

	var walk func(i int, err error)
	walk = func(i int, err error) {
		if err != nil {
			done(err)
			return
		}
		if i >= len(steps) {
			done(nil)
			return
		}
		var called atomic.Bool
		steps[i](req, func(err error) {
			if called.Swap(true) {
				return
			}
			walk(i+1, err)
		})
	}
	walk(0, nil)
}

// Validate runs the validator synchronously on r.
func (v *Validator) Validate(r *http.Request) error {
	finished := false
	var result error
	v.Run(NewRequest(r), func(err error) {
		finished = true
		result = err
	})
	if !finished {
		return ErrIncomplete
	}
	return result
}
