package dbmap

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps operation names to query definitions. Registration happens
// at construction time (from configuration) or later through Register;
// redefining a name replaces the previous definition.
type Registry struct {
	mu      sync.RWMutex
	queries map[string]*Query
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{queries: map[string]*Query{}}
}

// Register assembles and stores a query definition. Assembly errors keep
// the registry unchanged.
func (r *Registry) Register(name string, statements []string, parameters ...string) error {
	q, err := newQuery(name, statements, parameters)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.queries[name] = q
	r.mu.Unlock()

	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Query, error) {
	r.mu.RLock()
	q, ok := r.queries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}

	return q, nil
}

// Names returns the registered operation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.queries))
	for name := range r.queries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
