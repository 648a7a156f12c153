package graph

import (
	"fmt"
	"sort"
	"sync"
)

// NodeFactory constructs a Node instance of a registered type. id is the
// new node's identity within its owning arena; parentSubgraphID is empty
// for a root-arena node; cfg carries type-specific construction
// parameters (e.g. a Loop node's start/end bounds).
type NodeFactory func(id, parentSubgraphID string, cfg map[string]any) (Node, error)

// Registry is an explicit, caller-owned factory table mapping type tags
// to NodeFactory constructors. It deliberately carries no package-level
// global state, so distinct processes, tests, and tenants never bleed
// registrations into one another. Callers construct one Registry as
// needed and pass it explicitly into graph construction.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]NodeFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]NodeFactory)}
}

// Register adds a factory under typeName. It fails if typeName is
// already registered.
func (r *Registry) Register(typeName string, factory NodeFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("registry: type %q already registered", typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// MustRegister is Register but panics on error; intended for
// package-init-time registration of built-in node kinds where a
// duplicate registration is a programming error, not a runtime
// condition.
func (r *Registry) MustRegister(typeName string, factory NodeFactory) {
	if err := r.Register(typeName, factory); err != nil {
		panic(err)
	}
}

// Create constructs a new Node of typeName.
func (r *Registry) Create(typeName, id, parentSubgraphID string, cfg map[string]any) (Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown node type %q", typeName)
	}
	return factory(id, parentSubgraphID, cfg)
}

// ListTypes returns every registered type name, sorted.
func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
