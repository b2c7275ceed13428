package fetchplan

import (
	"fmt"
	"sync"
)

// Registry holds the plans known for each entity and the default per entity.
// It is written at startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	plans    map[string]map[Selector]Plan
	defaults map[string]Plan
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plans:    make(map[string]map[Selector]Plan),
		defaults: make(map[string]Plan),
	}
}

// Register makes plan selectable for entity under sel.
func (r *Registry) Register(entity string, sel Selector, plan Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plans[entity] == nil {
		r.plans[entity] = make(map[Selector]Plan)
	}
	r.plans[entity][sel] = plan
}

// SetDefault marks an already registered selector as the entity's default plan.
func (r *Registry) SetDefault(entity string, sel Selector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.plans[entity][sel]
	if !ok {
		return fmt.Errorf("fetch plan %q is not registered for %s", sel, entity)
	}
	r.defaults[entity] = plan
	return nil
}

// Default returns the entity's default plan (zero Plan if none configured).
func (r *Registry) Default(entity string) Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[entity]
}

// Lookup returns the plan registered for entity under sel.
func (r *Registry) Lookup(entity string, sel Selector) (Plan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[entity][sel]
	return plan, ok
}

// Resolve picks the first recognized selector for entity. Unrecognized
// selectors are skipped, and with no match the default plan is returned.
func (r *Registry) Resolve(entity string, selectors ...Selector) Plan {
	for _, sel := range selectors {
		if plan, ok := r.Lookup(entity, sel); ok {
			return plan
		}
	}
	return r.Default(entity)
}
