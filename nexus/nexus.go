// Package nexus holds the process-wide registry that carries a generated
// type's pending initializer from the moment its bytes are handed to the
// runtime until the moment the runtime actually links the class.
//
// Entries are keyed by (binary name, defining loader identity). An entry
// is inserted once at injection time and consumed at most once by the
// first link of the named class; entries for classes that are never
// loaded stay for process lifetime, symmetrical to ordinary class
// metadata.
package nexus

import "sync"

// Registry is the narrow interface over the registry so callers can
// substitute a double that does not touch process-global state.
type Registry interface {
	// Register stores a pending initializer for the named type in the
	// given loader. A second registration for the same key replaces the
	// first.
	Register(name string, loader any, initializer any)

	// Consume removes and returns the pending initializer for the key.
	// The second result is false when no entry exists; each entry is
	// delivered to exactly one caller.
	Consume(name string, loader any) (any, bool)
}

type key struct {
	name   string
	loader any
}

// mapRegistry is the concurrent default implementation.
type mapRegistry struct {
	entries sync.Map // key -> any
}

// New creates an empty stand-alone registry, useful as a test double.
func New() Registry {
	return &mapRegistry{}
}

func (r *mapRegistry) Register(name string, loader any, initializer any) {
	r.entries.Store(key{name: name, loader: loader}, initializer)
}

func (r *mapRegistry) Consume(name string, loader any) (any, bool) {
	return r.entries.LoadAndDelete(key{name: name, loader: loader})
}

// Global is the process-wide registry consulted by the class linking
// machinery. Swap it out only in tests.
var Global Registry = New()

// Register stores a pending initializer in the global registry.
func Register(name string, loader any, initializer any) {
	Global.Register(name, loader, initializer)
}

// Consume removes and returns a pending initializer from the global
// registry.
func Consume(name string, loader any) (any, bool) {
	return Global.Consume(name, loader)
}
