package memstore

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/maps"
)

type shaperKey struct {
	collection string
	attribute  string
}

// Shaper resolves attribute names to shape-path ids per collection,
// caching the hot path (attribute -> id) in a bounded LRU so repeated
// by-example lookups over the same few attributes skip the map probe
// (spec §9 GLOSSARY "shape path"). The reverse direction and the
// authoritative path table still live on Store.
type Shaper struct {
	store *Store
	cache *lru.Cache[shaperKey, int64]
}

// NewShaper wraps store with an LRU-cached path resolver of the given
// cache size.
func NewShaper(store *Store, cacheSize int) *Shaper {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, _ := lru.New[shaperKey, int64](cacheSize)
	return &Shaper{store: store, cache: cache}
}

// PathID satisfies mvcc.Shaper.
func (sh *Shaper) PathID(collection, attribute string) (int64, bool) {
	k := shaperKey{collection, attribute}
	if id, ok := sh.cache.Get(k); ok {
		return id, true
	}
	sh.store.mu.Lock()
	id, ok := sh.store.paths[collection][attribute]
	sh.store.mu.Unlock()
	if ok {
		sh.cache.Add(k, id)
	}
	return id, ok
}

// Attribute satisfies mvcc.Shaper.
func (sh *Shaper) Attribute(collection string, pathID int64) (string, bool) {
	sh.store.mu.Lock()
	defer sh.store.mu.Unlock()
	name, ok := sh.store.pathNames[collection][pathID]
	return name, ok
}

// KnownAttributes returns collection's attribute names in deterministic
// (sorted) order rather than Go's randomized map iteration order. The
// in-memory indexes do not call it; they take their field list from the
// caller.
func (sh *Shaper) KnownAttributes(collection string) []string {
	sh.store.mu.Lock()
	attrs := maps.Keys(sh.store.paths[collection])
	sh.store.mu.Unlock()
	sort.Strings(attrs)
	return attrs
}
