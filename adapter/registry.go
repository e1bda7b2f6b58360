package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an adapter from manifest arguments.
type Factory func(args map[string]any) (Adapter, error)

// Registry manages adapter factories keyed by type name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// DefaultRegistry is the global adapter registry. Adapter packages register
// themselves here via init().
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given type name. Registering the same
// name twice is a programming error and panics.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic("adapter: duplicate registration for type " + name)
	}
	r.factories[name] = factory
}

// Get returns the factory for a type name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Build instantiates an adapter of the given type with the given arguments.
func (r *Registry) Build(name string, args map[string]any) (Adapter, error) {
	factory, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown adapter type: %s", name)
	}
	a, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", name, err)
	}
	return a, nil
}

// Types returns all registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Register adds a factory to the default registry.
func Register(name string, factory Factory) {
	DefaultRegistry.Register(name, factory)
}
