// Package schema reads the OpenAPI documents the gateway validates against.
//
// Documents live flat in one directory and are named after their key:
// core_<version>.yaml for the core protocol, <domain>_<version>.yaml for a
// domain-qualified (layer 2) schema.
package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// FilePattern matches the file names treated as schema documents.
const FilePattern = "*.{yaml,yml}"

// Extension is the extension request-derived keys are looked up with first.
const Extension = ".yaml"

var extensions = []string{Extension, ".yml"}

// Errors returned by Store. Callers match them with errors.Is.
var (
	ErrNotFound    = errors.New("schema document not found")
	ErrEmptyFile   = errors.New("schema document is empty")
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	ErrInvalidSpec = errors.New("invalid OpenAPI document")
	ErrInvalidKey  = errors.New("invalid schema key")
)

// Key names one schema document: its file name without extension.
type Key string

// KeyFromFilename strips the schema extension from a file name.
func KeyFromFilename(name string) Key {
	return Key(strings.TrimSuffix(name, filepath.Ext(name)))
}

// Store reads schema documents from a directory. It holds no state besides
// the directory and is safe for concurrent use.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the schema directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the names of the regular files in the directory matching
// FilePattern, in directory-listing order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema directory %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ok, _ := doublestar.Match(FilePattern, entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Exists reports whether a document for key is installed as <key>.yaml or
// <key>.yml. An unreadable directory counts as "not installed".
func (s *Store) Exists(key Key) bool {
	_, err := s.Path(key)
	return err == nil
}

// Path returns the file backing key, preferring the .yaml extension.
func (s *Store) Path(key Key) (string, error) {
	// Keys come from request bodies; never let one leave the directory.
	if strings.ContainsAny(string(key), `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, ext := range extensions {
		path := filepath.Join(s.dir, string(key)+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(s.dir, string(key)+Extension))
}

// Load reads and parses the document for key.
func (s *Store) Load(key Key) (*openapi3.T, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses the OpenAPI document at path. External $refs
// are resolved relative to the file.
func LoadFile(path string) (*openapi3.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses an OpenAPI document. path is used for error messages and to
// resolve relative $refs; it may be empty.
func Parse(data []byte, path string) (*openapi3.T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	// kin-openapi's own YAML errors are hard to tell apart from structural
	// ones, so check the syntax first.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidYAML, path, err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if path != "" {
		doc, err = loader.LoadFromDataWithPath(data, &url.URL{Path: filepath.ToSlash(path)})
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidSpec, path, err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidSpec, path, err)
	}

	return doc, nil
}
