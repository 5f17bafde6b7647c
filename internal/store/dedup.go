package store

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduplicator counts distinct route keys using a Bloom filter backed by an
// exact set.
type Deduplicator struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator(estimatedItems int) *Deduplicator {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}

	return &Deduplicator{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Add adds a key and reports whether it was new.
func (d *Deduplicator) Add(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(key) {
		if _, exists := d.exact[key]; exists {
			return false
		}
	}
	d.filter.AddString(key)
	d.exact[key] = struct{}{}
	return true
}

// Count returns the number of distinct keys.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.exact)
}

var (
	colonParam = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*\??`)
	braceParam = regexp.MustCompile(`\{[^/}]+\}`)
)

// RouteKey builds the dedup key for a route: the upper-case method and the
// path with duplicate and trailing slashes removed and every named parameter
// (":id", "{id}") collapsed to ":param".
func RouteKey(method, path string) string {
	return strings.ToUpper(method) + " " + NormalizePath(path)
}

// NormalizePath normalizes a route path for comparison.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	path = colonParam.ReplaceAllString(path, ":param")
	return braceParam.ReplaceAllString(path, ":param")
}
