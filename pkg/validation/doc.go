// Package validation compiles OpenAPI documents into request validators.
//
// A Validator is an ordered sequence of steps. The compiler produces, in
// order:
//   - route: match the request to an operation of the document
//   - security: check security requirements (only with an AuthenticationFunc)
//   - parameters: path, query, header and cookie parameters
//   - body: the request body against its JSON Schema
//
// Each step receives a continuation. Validator.Run invokes the steps strictly
// in sequence and stops at the first one that reports an error:
//
//	validator, err := validation.NewCompiler(validation.Options{}).Compile(doc)
//	if err != nil {
//	    return err
//	}
//	validator.Run(validation.NewRequest(r), func(err error) {
//	    if err != nil {
//	        // rejected
//	    }
//	})
//
// Step failures are reported as *apierror.Error of kind
// apierror.KindValidationFailure, carrying the HTTP status kin-openapi
// associates with the failure.
package validation
