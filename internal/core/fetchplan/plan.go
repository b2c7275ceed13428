// Package fetchplan describes which relations of an entity are loaded eagerly.
//
// A Plan is an immutable, named set of relation paths. Plans are registered per
// entity in a Registry and picked per call with typed Selectors; when a caller
// passes no selector the entity's default plan applies.
package fetchplan

import "slices"

// Path names one eagerly loaded relation, e.g. "market_areas".
type Path string

// Selector picks a registered plan for a call.
type Selector string

// Plan is an immutable named bundle of eager paths for one entity type.
type Plan struct {
	name  string
	paths []Path
}

// New creates a plan. Duplicate paths are dropped; order is preserved.
func New(name string, paths ...Path) Plan {
	uniq := make([]Path, 0, len(paths))
	for _, p := range paths {
		if !slices.Contains(uniq, p) {
			uniq = append(uniq, p)
		}
	}
	return Plan{name: name, paths: uniq}
}

// Name returns the plan name.
func (p Plan) Name() string { return p.name }

// Paths returns a copy of the eager paths.
func (p Plan) Paths() []Path { return slices.Clone(p.paths) }

// Has reports whether path is loaded eagerly by this plan.
func (p Plan) Has(path Path) bool { return slices.Contains(p.paths, path) }

// IsZero reports whether the plan was never set.
func (p Plan) IsZero() bool { return p.name == "" && len(p.paths) == 0 }
