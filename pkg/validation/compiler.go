package validation

import (
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

var errNoRoute = errors.New("validation step ran before the route was matched")

// Options configures the Compiler.
type Options struct {
	// AuthenticationFunc enables the security step. When nil, security
	// requirements are not checked; authentication belongs to the gateway.
	AuthenticationFunc openapi3filter.AuthenticationFunc

	// ExcludeRequestBody skips request body validation.
	ExcludeRequestBody bool

	// SingleStep compiles the whole check into one step instead of one step
	// per stage. Useful when callers only care about the first error.
	SingleStep bool
}

// Compiler turns OpenAPI documents into Validators.
type Compiler struct {
	opts Options
}

// NewCompiler creates a Compiler.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile builds a Validator for doc. The document must already have been
// validated (see schema.Parse).
func (c *Compiler) Compile(doc *openapi3.T) (*Validator, error) {
	if doc == nil {
		return nil, errors.New("no OpenAPI document to compile")
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	filterOpts := &openapi3filter.Options{
		ExcludeRequestBody: c.opts.ExcludeRequestBody,
		AuthenticationFunc: c.opts.AuthenticationFunc,
	}

	if c.opts.SingleStep {
		return NewValidator(doc, wholeRequestStep(router, filterOpts, c.opts.AuthenticationFunc != nil)), nil
	}

	steps := []Step{routeStep(router, filterOpts)}
	if c.opts.AuthenticationFunc != nil {
		steps = append(steps, securityStep)
	}
	steps = append(steps, parametersStep)
	if !c.opts.ExcludeRequestBody {
		steps = append(steps, bodyStep)
	}
	return NewValidator(doc, steps...), nil
}

func routeStep(router routers.Router, opts *openapi3filter.Options) Step {
	return func(req *Request, next func(error)) {
		route, pathParams, err := router.FindRoute(req.HTTP)
		if err != nil {
			next(Reject(err))
			return
		}
		req.input = &openapi3filter.RequestValidationInput{
			Request:    req.HTTP,
			PathParams: pathParams,
			Route:      route,
			Options:    opts,
		}
		next(nil)
	}
}

func securityStep(req *Request, next func(error)) {
	if req.input == nil {
		next(errNoRoute)
		return
	}
	route := req.input.Route
	security := route.Operation.Security
	if security == nil {
		security = &route.Spec.Security
	}
	if err := openapi3filter.ValidateSecurityRequirements(req.HTTP.Context(), req.input, *security); err != nil {
		next(Reject(err))
		return
	}
	next(nil)
}

func parametersStep(req *Request, next func(error)) {
	if req.input == nil {
		next(errNoRoute)
		return
	}
	ctx := req.HTTP.Context()
	route := req.input.Route
	operationParams := route.Operation.Parameters

	// Path item parameters, unless the operation overrides them.
	for _, ref := range route.PathItem.Parameters {
		param := ref.Value
		if operationParams.GetByInAndName(param.In, param.Name) != nil {
			continue
		}
		if err := openapi3filter.ValidateParameter(ctx, req.input, param); err != nil {
			next(Reject(err))
			return
		}
	}

	for _, ref := range operationParams {
		if err := openapi3filter.ValidateParameter(ctx, req.input, ref.Value); err != nil {
			next(Reject(err))
			return
		}
	}
	next(nil)
}

func bodyStep(req *Request, next func(error)) {
	if req.input == nil {
		next(errNoRoute)
		return
	}
	body := req.input.Route.Operation.RequestBody
	if body == nil {
		next(nil)
		return
	}
	if err := openapi3filter.ValidateRequestBody(req.HTTP.Context(), req.input, body.Value); err != nil {
		next(Reject(err))
		return
	}
	next(nil)
}

func wholeRequestStep(router routers.Router, opts *openapi3filter.Options, checkSecurity bool) Step {
	if !checkSecurity {
		// ValidateRequest always evaluates security; a no-op authenticator
		// makes it accept whatever the document declares.
		copied := *opts
		copied.AuthenticationFunc = openapi3filter.NoopAuthenticationFunc
		opts = &copied
	}
	route := routeStep(router, opts)
	return func(req *Request, next func(error)) {
		route(req, func(err error) {
			if err != nil {
				next(err)
				return
			}
			if err := openapi3filter.ValidateRequest(req.HTTP.Context(), req.input); err != nil {
				next(Reject(err))
				return
			}
			next(nil)
		})
	}
}
