package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
)

// CredentialsPresent is an openapi3filter.AuthenticationFunc that checks the
// credential a security scheme names was sent. It does not verify it;
// verification belongs to the protocol server.
func CredentialsPresent(_ context.Context, in *openapi3filter.AuthenticationInput) error {
	scheme := in.SecurityScheme
	r := in.RequestValidationInput.Request

	switch scheme.Type {
	case "apiKey":
		var found bool
		switch scheme.In {
		case "header":
			found = r.Header.Get(scheme.Name) != ""
		case "query":
			found = r.URL.Query().Get(scheme.Name) != ""
		case "cookie":
			_, err := r.Cookie(scheme.Name)
			found = err == nil
		}
		if !found {
			return in.NewError(fmt.Errorf("missing %s %q", scheme.In, scheme.Name))
		}
	case "http", "oauth2", "openIdConnect":
		auth := r.Header.Get("Authorization")
		if auth == "" {
			return in.NewError(errors.New("missing Authorization header"))
		}
		if scheme.Type == "http" && scheme.Scheme != "" &&
			!strings.HasPrefix(strings.ToLower(auth), strings.ToLower(scheme.Scheme)+" ") {
			return in.NewError(fmt.Errorf("authorization scheme is not %s", scheme.Scheme))
		}
	}
	return nil
}
