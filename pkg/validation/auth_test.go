package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/schemagate/pkg/apierror"
)

const securedSpec = `
openapi: 3.0.3
info:
  title: Secured API
  version: "1.0"
components:
  securitySchemes:
    apiKey:
      type: apiKey
      in: header
      name: X-Api-Key
    bearer:
      type: http
      scheme: bearer
security:
  - apiKey: []
paths:
  /status:
    get:
      responses:
        "200":
          description: status
  /admin:
    get:
      security:
        - bearer: []
      responses:
        "200":
          description: admin
`

func compileSecured(t *testing.T, opts Options) *Validator {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(securedSpec))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	v, err := NewCompiler(opts).Compile(doc)
	require.NoError(t, err)
	return v
}

func TestCredentialsPresent(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{name: "api key sent", path: "/status", headers: map[string]string{"X-Api-Key": "k"}},
		{name: "api key missing", path: "/status", status: http.StatusUnauthorized},
		{name: "bearer sent", path: "/admin", headers: map[string]string{"Authorization": "Bearer t"}},
		{name: "wrong auth scheme", path: "/admin", headers: map[string]string{"Authorization": "Basic dTpw"}, status: http.StatusUnauthorized},
		{name: "authorization missing", path: "/admin", headers: map[string]string{"X-Api-Key": "k"}, status: http.StatusUnauthorized},
	}

	for _, opts := range []Options{
		{AuthenticationFunc: CredentialsPresent},
		{AuthenticationFunc: CredentialsPresent, SingleStep: true},
	} {
		v := compileSecured(t, opts)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, tt.path, nil)
				for k, val := range tt.headers {
					req.Header.Set(k, val)
				}

				err := v.Validate(req)
				if tt.status == 0 {
					require.NoError(t, err)
					return
				}
				apiErr, ok := apierror.As(err)
				require.True(t, ok)
				assert.Equal(t, apierror.KindValidationFailure, apiErr.Kind)
				assert.Equal(t, tt.status, apiErr.Status)
			})
		}
	}
}

func TestCompile_SecurityIgnoredWithoutAuthenticator(t *testing.T) {
	v := compileSecured(t, Options{})
	require.NoError(t, v.Validate(httptest.NewRequest(http.MethodGet, "/status", nil)))
}
