package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreSpec = `
openapi: 3.0.0
info:
  title: Core API
  version: "1.0.0"
paths:
  /search:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [context]
              properties:
                context:
                  type: object
      responses:
        "200":
          description: ACK
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "core_1.0.yaml", coreSpec)
	writeFile(t, dir, "acme_1.0.yml", coreSpec)
	writeFile(t, dir, "README.md", "docs")
	writeFile(t, dir, "core_2.0.yaml.bak", coreSpec)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	names, err := NewStore(dir).List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"core_1.0.yaml", "acme_1.0.yml"}, names)
}

func TestStore_List_MissingDir(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing")).List()
	assert.Error(t, err)
}

func TestStore_Path(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "core_1.0.yaml", coreSpec)
	writeFile(t, dir, "core_1.0.yml", coreSpec)
	writeFile(t, dir, "acme_2.0.yml", coreSpec)
	store := NewStore(dir)

	path, err := store.Path("core_1.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "core_1.0.yaml"), path, ".yaml wins over .yml")

	path, err = store.Path("acme_2.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acme_2.0.yml"), path)

	_, err = store.Path("core_9.9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Path("core_../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	assert.True(t, store.Exists("acme_2.0"))
	assert.False(t, store.Exists("acme_3.0"))
}

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "core_1.0.yaml", coreSpec)

	doc, err := NewStore(dir).Load("core_1.0")
	require.NoError(t, err)
	assert.Equal(t, "Core API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/search"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "  \n", ErrEmptyFile},
		{"malformed yaml", "openapi: 3.0.0\npaths: [\n", ErrInvalidYAML},
		{"not openapi", "foo: bar\n", ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "schemas/test.yaml")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKeyFromFilename(t *testing.T) {
	assert.Equal(t, Key("core_1.0"), KeyFromFilename("core_1.0.yaml"))
	assert.Equal(t, Key("acme_v1_2"), KeyFromFilename("acme_v1_2.yml"))
}
