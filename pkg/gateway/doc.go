// Package gateway puts schema validation in front of a protocol server.
//
// For every request the Middleware:
//  1. reads the JSON body and resolves the schema key from its context
//     (context.core_version or context.version, and context.domain when
//     domain-qualified schemas are enabled),
//  2. fetches the compiled validator from the validator cache,
//  3. runs the validator steps in order,
//  4. hands the request to the next handler, or the first failure to the
//     error handler as an *apierror.Error.
//
// Untyped failures are wrapped as apierror.KindSchemaParsing and tagged with
// the protocol server level, e.g. "OpenApiValidator Error at BAP-CLIENT".
package gateway
