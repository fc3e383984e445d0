package filter

import (
	"reflect"
	"sync"
	"time"
)

// SingletonClassFilter excludes well-known process-wide singleton types from
// measurement. Type descriptors and interned location objects are shared by
// the whole process, so charging them to one object graph would misattribute
// their cost. It is safe for concurrent use.
type SingletonClassFilter struct {
	mu sync.RWMutex

	// Singleton types, matched exactly.
	singletonTypes map[reflect.Type]bool

	// Singleton package paths, matched exactly.
	singletonPkgs map[string]bool

	// Cache for frequently queried types.
	cache     map[reflect.Type]bool
	cacheSize int
}

// NewSingletonClassFilter creates a SingletonClassFilter with default rules.
func NewSingletonClassFilter() *SingletonClassFilter {
	f := &SingletonClassFilter{
		singletonTypes: make(map[reflect.Type]bool),
		singletonPkgs:  make(map[string]bool),
		cache:          make(map[reflect.Type]bool),
		cacheSize:      1024,
	}
	f.initDefaults()
	return f
}

// initDefaults initializes default singleton rules.
func (f *SingletonClassFilter) initDefaults() {
	// The concrete type behind reflect.Type: one descriptor per type,
	// shared process-wide.
	typeDescriptor := reflect.TypeOf(reflect.TypeOf(0))
	f.singletonTypes[typeDescriptor] = true
	if typeDescriptor.Kind() == reflect.Ptr {
		f.singletonTypes[typeDescriptor.Elem()] = true
	}

	// Interned time zones (time.UTC, time.Local).
	f.singletonTypes[reflect.TypeOf(time.Location{})] = true
}

// Ignore reports whether t is a known singleton type.
func (f *SingletonClassFilter) Ignore(t reflect.Type) bool {
	if t == nil {
		return false
	}

	f.mu.RLock()
	if ignored, ok := f.cache[t]; ok {
		f.mu.RUnlock()
		return ignored
	}
	f.mu.RUnlock()

	ignored := f.ignoreUncached(t)

	f.mu.Lock()
	if len(f.cache) < f.cacheSize {
		f.cache[t] = ignored
	}
	f.mu.Unlock()

	return ignored
}

// ignoreUncached computes the decision without using the cache.
func (f *SingletonClassFilter) ignoreUncached(t reflect.Type) bool {
	if f.singletonTypes[t] {
		return true
	}
	if t.Kind() == reflect.Ptr && f.singletonTypes[t.Elem()] {
		return true
	}
	return f.singletonPkgs[t.PkgPath()]
}

// AddSingletonType registers an additional singleton type.
func (f *SingletonClassFilter) AddSingletonType(t reflect.Type) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.singletonTypes[t] = true
	f.cache = make(map[reflect.Type]bool)
}

// AddSingletonPackage registers a package path whose types are all treated
// as singletons.
func (f *SingletonClassFilter) AddSingletonPackage(pkgPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.singletonPkgs[pkgPath] = true
	f.cache = make(map[reflect.Type]bool)
}
