// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"
)

// Factory creates a new Surface with the given options.
// Implementations should validate options and return descriptive errors.
type Factory func(opts Options) (Surface, error)

// RegistryEntry represents a registered surface backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines the order of List (higher first).
	Priority int

	// Factory creates surface instances.
	Factory Factory

	// Available reports if the backend can be used on this system.
	Available func() bool
}

// globalRegistry is the default registry.
var globalRegistry = NewRegistry()

// Registry manages named surface backends.
//
// Example registration:
//
//	func init() {
//	    surface.Register("svg", 20, newSVGSurface, nil)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewByName.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a backend to the global registry.
// If available is nil, the backend is assumed always available.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names sorted by priority (highest first).
func List() []string {
	return globalRegistry.List()
}

// NewByName creates a surface using a specific named backend.
func NewByName(name string, opts Options) (Surface, error) {
	return globalRegistry.NewByName(name, opts)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	if factory == nil {
		panic("surface: Register factory is nil")
	}
	if available == nil {
		available = func() bool { return true }
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority, then name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Get returns a copy of a backend's entry.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// NewByName creates a surface using a specific backend and paints the
// background from opts.
func (r *Registry) NewByName(name string, opts Options) (Surface, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !entry.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, ErrInvalidSize
	}

	s, err := entry.Factory(opts)
	if err != nil {
		return nil, err
	}
	if opts.Background != nil {
		s.Clear(opts.Background)
	}
	return s, nil
}

// Errors.
var (
	// ErrInvalidSize is returned for non-positive surface dimensions.
	ErrInvalidSize = errors.New("surface: invalid size")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

// init registers the built-in backends.
func init() {
	Register("image", 10, func(opts Options) (Surface, error) {
		return NewImageSurface(opts.Width, opts.Height), nil
	}, nil)
	Register("pdf", 5, func(opts Options) (Surface, error) {
		return NewPDFSurface(opts.Width, opts.Height), nil
	}, nil)
}
