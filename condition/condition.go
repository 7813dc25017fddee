// Package condition holds the registry of permission conditions. A condition
// is a named predicate a permission can reference; the registry is the
// source of truth used to prune references to conditions that no longer
// exist.
package condition

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicate is returned when registering a condition whose ID is taken.
var ErrDuplicate = errors.New("condition: duplicate id")

// ErrInvalid is returned for a condition without a name.
var ErrInvalid = errors.New("condition: name is required")

// Condition describes a registered condition.
type Condition struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Category    string `json:"category,omitempty" yaml:"category"`
	Plugin      string `json:"plugin,omitempty" yaml:"plugin"`
}

// ID returns the namespaced identifier permissions refer to:
// "plugin::<plugin>.<name>" for plugin conditions, "admin::<name>" otherwise.
func (c Condition) ID() string {
	if c.Plugin != "" {
		return "plugin::" + c.Plugin + "." + c.Name
	}
	return "admin::" + c.Name
}

// Registry is a concurrency-safe set of conditions keyed by ID.
// It satisfies permission.Provider.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Condition
}

// NewRegistry creates a registry pre-populated with cs.
func NewRegistry(cs ...Condition) (*Registry, error) {
	r := &Registry{items: make(map[string]Condition)}
	if err := r.RegisterMany(cs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds c. It fails if c has no name or its ID is already taken.
func (r *Registry) Register(c Condition) error {
	if c.Name == "" {
		return ErrInvalid
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	key := c.ID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[string]Condition)
	}
	if _, ok := r.items[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.items[key] = c
	return nil
}

// RegisterMany registers each condition in order and stops at the first
// failure. Conditions registered before the failure are kept.
func (r *Registry) RegisterMany(cs ...Condition) error {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the condition with the given ID and reports whether it
// existed.
func (r *Registry) Delete(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key]; !ok {
		return false
	}
	delete(r.items, key)
	return true
}

// Get returns the condition with the given ID.
func (r *Registry) Get(key string) (Condition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[key]
	return c, ok
}

// Has reports whether a condition with the given ID is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns all registered IDs, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns all registered conditions ordered by ID.
func (r *Registry) Values() []Condition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Condition, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Size returns the number of registered conditions.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear removes every condition.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]Condition)
}
