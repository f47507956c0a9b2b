// Package assets locates, decodes, and caches texture and mesh files stored
// under one or more root directories.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gltut/pkg/formats"
)

// Catalog errors.
var (
	ErrNotFound     = errors.New("asset not found")
	ErrInvalidName  = errors.New("invalid asset name")
	ErrKindMismatch = errors.New("asset has a different kind")
	ErrNotDirectory = errors.New("asset root is not a directory")
)

// Manager handles asset lookup across root directories.
// Roots are searched in reverse order (last added = highest priority).
type Manager struct {
	roots []string
	cache *Cache
	log   *zap.Logger
	mu    sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for load and watch diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithoutCache makes every load decode from disk.
func WithoutCache() Option {
	return func(m *Manager) {
		m.cache = nil
	}
}

// NewManager creates a new asset manager with no roots.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cache: NewCache(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddRoot adds a directory to search. Later roots shadow earlier ones.
func (m *Manager) AddRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("opening root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, abs)
	m.mu.Unlock()

	m.log.Debug("asset root added", zap.String("root", abs))
	return nil
}

// Roots returns the root directories in the order they were added.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roots...)
}

// Resolve maps a slash-separated asset name to a file path, checking the
// highest-priority root first.
func (m *Manager) Resolve(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		path := filepath.Join(m.roots[i], rel)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// LoadTexture resolves and decodes a BMP texture.
func (m *Manager) LoadTexture(name string) (*formats.BMP, error) {
	v, err := m.load(name, KindTexture)
	if err != nil {
		return nil, err
	}
	bmp, ok := v.(*formats.BMP)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a texture", ErrKindMismatch, name)
	}
	return bmp, nil
}

// LoadMesh resolves and decodes an OBJ mesh.
func (m *Manager) LoadMesh(name string) (*formats.OBJ, error) {
	v, err := m.load(name, KindMesh)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*formats.OBJ)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a mesh", ErrKindMismatch, name)
	}
	return obj, nil
}

func (m *Manager) load(name string, want Kind) (any, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	if got := Classify(path); got != want {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrKindMismatch, name, got, want)
	}

	if m.cache != nil {
		if v, ok := m.cache.Get(path); ok {
			return v, nil
		}
	}

	v, err := decode(path, want)
	if err != nil {
		return nil, err
	}

	m.log.Debug("asset decoded", zap.String("name", name), zap.String("path", path), zap.Stringer("kind", want))

	if m.cache != nil {
		m.cache.Set(path, v)
	}
	return v, nil
}

// Invalidate drops any cached decode of the file at path.
func (m *Manager) Invalidate(path string) {
	if m.cache != nil {
		m.cache.Delete(path)
	}
}

// Cache returns the decoded asset cache, or nil when caching is disabled.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close drops all roots and cached assets.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	if m.cache != nil {
		m.cache.Clear()
	}
}

// decode runs the decoder for kind on the file at path.
func decode(path string, kind Kind) (any, error) {
	switch kind {
	case KindTexture:
		return formats.ParseBMPFile(path)
	case KindMesh:
		return formats.ParseOBJFile(path)
	default:
		return nil, fmt.Errorf("%w: %s has no decoder", ErrKindMismatch, path)
	}
}

// Cache is a simple in-memory cache for decoded assets keyed by file path.
type Cache struct {
	data map[string]any
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]any),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Delete removes one item and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]any)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
