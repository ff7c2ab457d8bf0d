package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsStatus(t *testing.T) {
	err := New(KindSchemaParsing, "boom", 0, nil)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "OpenApiSchema_ParsingError: boom", err.Error())
}

func TestAs_ThroughWrapping(t *testing.T) {
	inner := New(KindConfigMissing, "layer 2 missing", http.StatusUnprocessableEntity, nil)
	wrapped := fmt.Errorf("resolve: %w", inner)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestStatusOf(t *testing.T) {
	validationErr := &openapi3filter.ValidationError{Status: http.StatusUnsupportedMediaType}

	assert.Equal(t, http.StatusUnsupportedMediaType, StatusOf(validationErr, 500))
	assert.Equal(t, http.StatusUnsupportedMediaType, StatusOf(fmt.Errorf("x: %w", validationErr), 500))
	assert.Equal(t, 500, StatusOf(errors.New("plain"), 500))
	assert.Equal(t, 500, StatusOf(&openapi3filter.ValidationError{}, 500))
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	err := New(KindValidationFailure, "request body has an error", http.StatusBadRequest, errors.New("property \"context\" is missing"))

	Write(rec, err, "req-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, KindValidationFailure, p.Type)
	assert.Equal(t, "request body has an error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, `property "context" is missing`, p.Detail)
	assert.Equal(t, "req-1", p.Instance)
}

func TestNewProblem_HidesSchemaParsingCause(t *testing.T) {
	cause := errors.New("schema document not found: /srv/schemagate/schemas/core_.yaml")
	err := New(KindSchemaParsing, "OpenApiValidator Error at BAP-CLIENT", 0, cause)

	p := NewProblem(err, "req-2")

	assert.Equal(t, KindSchemaParsing, p.Type)
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Empty(t, p.Detail)
	assert.ErrorIs(t, err, cause)
}
