// Package cache keeps compiled request validators in a bounded, usage-aware
// cache so schema documents are not reparsed on every request.
//
// The cache holds at most Capacity entries. Each hit increments the entry's
// usage count. When a miss needs room, the entry with the smallest count is
// evicted; among entries with equal counts the one inserted first goes.
//
// A single mutex serializes lookup, compile and eviction. Compiling a missing
// schema therefore blocks other lookups for its duration; schema documents are
// small enough for this to be acceptable.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/schemagate/pkg/apierror"
	"github.com/getmockd/schemagate/pkg/logging"
	"github.com/getmockd/schemagate/pkg/metrics"
	"github.com/getmockd/schemagate/pkg/schema"
	"github.com/getmockd/schemagate/pkg/validation"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 5

// MaxUsageCount is the usage count ceiling; counts saturate there.
const MaxUsageCount uint64 = 1000

// Source loads schema documents by key.
type Source interface {
	Load(key schema.Key) (*openapi3.T, error)
}

// Compiler turns a schema document into a validator.
type Compiler interface {
	Compile(doc *openapi3.T) (*validation.Validator, error)
}

// CompileError reports a schema document that could not be loaded or
// compiled. Err wraps the schema package sentinel errors.
type CompileError struct {
	Key schema.Key
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile schema %s: %v", e.Key, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Entry is one cached validator.
type Entry struct {
	Key       schema.Key
	Validator *validation.Validator
	// Document is kept for introspection.
	Document *openapi3.T
	Count    uint64
}

// Cache is a bounded validator cache. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[schema.Key]*Entry
	order    []schema.Key // insertion order, for the eviction tie-break
	capacity int

	source   Source
	compiler Compiler
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.Component(logger, "validator-cache")
	}
}

// WithMetrics sets the metrics the cache updates.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithCompiler replaces the default validation compiler.
func WithCompiler(compiler Compiler) Option {
	return func(c *Cache) {
		if compiler != nil {
			c.compiler = compiler
		}
	}
}

// New creates a Cache reading documents from source. capacity is fixed for
// the lifetime of the cache; a non-positive value means DefaultCapacity.
func New(source Source, capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		entries:  make(map[schema.Key]*Entry, capacity),
		capacity: capacity,
		source:   source,
		compiler: validation.NewCompiler(validation.Options{}),
		logger:   logging.Nop(),
		metrics:  metrics.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Contains reports whether key is cached, without counting a use.
func (c *Cache) Contains(key schema.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Count returns the usage count of key, and whether it is cached.
func (c *Cache) Count(key schema.Key) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.Count, true
	}
	return 0, false
}

// GetOrCompile returns the validator for key, compiling and caching it on a
// miss. On failure it returns a *CompileError and a nil validator.
func (c *Cache) GetOrCompile(key schema.Key) (*validation.Validator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if e.Count < MaxUsageCount {
			e.Count++
		}
		c.metrics.CacheHits.Inc()
		c.logger.Debug("validator cache hit", "key", key, "count", e.Count)
		return e.Validator, nil
	}

	c.metrics.CacheMisses.Inc()
	if len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	c.logger.Info("validator cache miss, loading schema", "key", key)
	e, err := c.compileLocked(key)
	if err != nil {
		c.metrics.CompileFailures.Inc()
		c.logger.Error("failed to compile schema", "key", key, "error", err)
		return nil, err
	}
	e.Count = 1
	c.insertLocked(e)
	return e.Validator, nil
}

// Preload compiles the first limit schema documents found in dir that are
// not cached yet, with a usage count of 0. It is best-effort: errors are
// logged and skipped. Preload never grows the cache past its capacity and
// never evicts.
func (c *Cache) Preload(dir string, limit int) {
	store := schema.NewStore(dir)
	names, err := store.List()
	if err != nil {
		c.metrics.PreloadErrors.Inc()
		c.logger.Error("failed to preload validators", "kind", apierror.KindPreload, "dir", dir, "error", err)
		return
	}

	c.logger.Info("preloading validators", "dir", dir, "limit", limit, "found", len(names))
	if limit > len(names) {
		limit = len(names)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names[:max(limit, 0)] {
		key := schema.KeyFromFilename(name)
		if _, ok := c.entries[key]; ok {
			continue
		}
		if len(c.entries) >= c.capacity {
			c.logger.Warn("validator cache full, stopping preload", "capacity", c.capacity)
			return
		}

		doc, err := schema.LoadFile(filepath.Join(store.Dir(), name))
		if err == nil {
			var e *Entry
			if e, err = c.newEntry(key, doc); err == nil {
				c.insertLocked(e)
				c.logger.Debug("validator preloaded", "key", key)
				continue
			}
		}
		c.metrics.PreloadErrors.Inc()
		c.logger.Error("failed to preload schema", "kind", apierror.KindPreload, "file", name, "error", err)
	}
}

// Snapshot describes one cached entry.
type Snapshot struct {
	Key     schema.Key `json:"key"`
	Count   uint64     `json:"count"`
	Title   string     `json:"title,omitempty"`
	Version string     `json:"version,omitempty"`
}

// Snapshot returns the cached entries sorted by key.
func (c *Cache) Snapshot() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Snapshot, 0, len(c.entries))
	for _, e := range c.entries {
		s := Snapshot{Key: e.Key, Count: e.Count}
		if e.Document != nil && e.Document.Info != nil {
			s.Title = e.Document.Info.Title
			s.Version = e.Document.Info.Version
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (c *Cache) compileLocked(key schema.Key) (*Entry, error) {
	if c.source == nil {
		return nil, &CompileError{Key: key, Err: errors.New("no schema source configured")}
	}
	doc, err := c.source.Load(key)
	if err != nil {
		return nil, &CompileError{Key: key, Err: err}
	}
	e, err := c.newEntry(key, doc)
	if err != nil {
		return nil, &CompileError{Key: key, Err: err}
	}
	return e, nil
}

func (c *Cache) newEntry(key schema.Key, doc *openapi3.T) (*Entry, error) {
	v, err := c.compiler.Compile(doc)
	if err != nil {
		return nil, err
	}
	return &Entry{Key: key, Validator: v, Document: doc}, nil
}

func (c *Cache) insertLocked(e *Entry) {
	c.entries[e.Key] = e
	c.order = append(c.order, e.Key)
	c.metrics.CacheEntries.Set(float64(len(c.entries)))
}

// evictLocked removes the entry with the smallest usage count. Ties go to
// the entry inserted first.
func (c *Cache) evictLocked() {
	if len(c.order) == 0 {
		return
	}

	victim := 0
	for i := 1; i < len(c.order); i++ {
		if c.entries[c.order[i]].Count < c.entries[c.order[victim]].Count {
			victim = i
		}
	}

	key := c.order[victim]
	c.logger.Info("validator cache full, evicting least used", "key", key, "count", c.entries[key].Count)
	delete(c.entries, key)
	c.order = append(c.order[:victim], c.order[victim+1:]...)
	c.metrics.CacheEvictions.Inc()
	c.metrics.CacheEntries.Set(float64(len(c.entries)))
}
