package domain

import (
	"context"
	"fmt"
	"time"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
	"catalogstore/pkg/logger"
)

// Loader hydrates one eager path for a batch of already loaded owners.
type Loader[T any] func(ctx context.Context, s Session, owners []T) error

// RepositoryConfig configures a generic repository.
type RepositoryConfig[T entity.Entity] struct {
	// Entity is the fetch-plan registry key and the name used in logs.
	Entity string

	Table        string
	Columns      []string
	DefaultOrder []query.Order

	// Plans may be nil for entities without selectable plans.
	Plans *fetchplan.Registry

	// New allocates an empty instance for single-row reads.
	New func() T
}

// Options are the tunables shared by all repositories.
type Options struct {
	Clock func() time.Time
}

// Option configures a repository.
type Option func(*Options)

// WithClock overrides the clock used for audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// defaultClock returns UTC wall time truncated to microseconds,
// the precision PostgreSQL stores.
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Repository is the CRUD and query surface for one entity type.
// It composes a query builder with the caller's session and owns no state
// beyond its configuration.
type Repository[T entity.Entity] struct {
	entity  string
	session Session
	builder *query.Builder
	plans   *fetchplan.Registry
	loaders map[fetchplan.Path]Loader[T]
	hooks   *HookRegistry[T]
	newFn   func() T
	clock   func() time.Time
}

// NewRepository creates a repository bound to session s.
func NewRepository[T entity.Entity](s Session, cfg RepositoryConfig[T], opts ...Option) *Repository[T] {
	o := Options{Clock: defaultClock}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		entity:  cfg.Entity,
		session: s,
		builder: query.NewBuilder(cfg.Table, cfg.Columns, cfg.DefaultOrder...),
		plans:   cfg.Plans,
		loaders: make(map[fetchplan.Path]Loader[T]),
		hooks:   NewHookRegistry[T](),
		newFn:   cfg.New,
		clock:   o.Clock,
	}
}

// Session returns the session the repository is bound to.
func (r *Repository[T]) Session() Session { return r.session }

// Builder returns the query builder for the root table.
func (r *Repository[T]) Builder() *query.Builder { return r.builder }

// Hooks returns the hook registry for lifecycle customization.
func (r *Repository[T]) Hooks() *HookRegistry[T] { return r.hooks }

// RegisterLoader binds an eager path to the loader that hydrates it.
func (r *Repository[T]) RegisterLoader(path fetchplan.Path, loader Loader[T]) {
	r.loaders[path] = loader
}

// ResolvePlan picks the plan for a call. Unknown selectors fall through to the default.
func (r *Repository[T]) ResolvePlan(selectors ...fetchplan.Selector) fetchplan.Plan {
	if r.plans == nil {
		return fetchplan.Plan{}
	}
	return r.plans.Resolve(r.entity, selectors...)
}

// FindOne returns the single row matching conds, or the zero T when none does.
func (r *Repository[T]) FindOne(ctx context.Context, plan fetchplan.Plan, conds ...query.Condition) (T, error) {
	var zero T

	q := r.builder.One(plan, conds...)
	e := r.newFn()
	found, err := r.session.Get(ctx, e, q)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", r.entity, err)
	}
	if !found {
		logger.Debug(ctx, "lookup matched nothing", "entity", r.entity, "plan", plan.Name())
		return zero, nil
	}

	if err := r.hydrate(ctx, plan, []T{e}); err != nil {
		return zero, err
	}
	return e, nil
}

// FindMany returns all rows matching conds in the builder's default order.
func (r *Repository[T]) FindMany(ctx context.Context, plan fetchplan.Plan, conds ...query.Condition) ([]T, error) {
	q := r.builder.List(plan, conds...)

	var items []T
	if err := r.session.Select(ctx, &items, q); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entity, err)
	}

	if err := r.hydrate(ctx, plan, items); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "list loaded", "entity", r.entity, "plan", plan.Name(), "rows", len(items))
	return items, nil
}

// GetByID looks an entity up by identity.
func (r *Repository[T]) GetByID(ctx context.Context, entityID id.ID, selectors ...fetchplan.Selector) (T, error) {
	return r.FindOne(ctx, r.ResolvePlan(selectors...), query.Eq("id", entityID))
}

// hydrate loads every eager path of plan and records the plan on each item.
// Paths without a registered loader are skipped.
func (r *Repository[T]) hydrate(ctx context.Context, plan fetchplan.Plan, items []T) error {
	if len(items) > 0 {
		for _, path := range plan.Paths() {
			loader, ok := r.loaders[path]
			if !ok {
				logger.Debug(ctx, "no loader for fetch path", "entity", r.entity, "path", path)
				continue
			}
			if err := loader(ctx, r.session, items); err != nil {
				return fmt.Errorf("hydrate %s.%s: %w", r.entity, path, err)
			}
		}
	}

	for _, item := range items {
		if pa, ok := any(item).(entity.PlanAware); ok {
			pa.SetFetchPlan(plan)
		}
	}
	return nil
}

// SaveOrUpdate inserts a transient entity or merges a persistent one.
//
// Transient (nil ID): stamp DateCreate, run create hooks, stamp DateUpdate,
// assign an ID and persist. The same instance is returned.
//
// Persistent: when the session tracks another instance with the same
// identity, that instance is reloaded first so stale state cannot be merged
// back. Then DateUpdate is stamped, update hooks run, and the entity is merged
// and flushed. The merged, authoritative instance is returned.
func (r *Repository[T]) SaveOrUpdate(ctx context.Context, e T) (T, error) {
	var zero T
	now := r.clock()

	if e.IsTransient() {
		e.StampCreate(now)
		if err := r.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return zero, err
		}
		e.StampUpdate(now)
		e.SetID(id.New())

		if err := r.session.Persist(ctx, e); err != nil {
			e.SetID(id.ID{})
			return zero, fmt.Errorf("persist %s: %w", r.entity, err)
		}
		logger.Debug(ctx, "entity persisted", "entity", r.entity, "id", e.GetID())
		return e, nil
	}

	if tracked, ok := r.session.Tracked(e); ok && tracked != entity.Record(e) {
		if err := r.session.Reload(ctx, tracked); err != nil {
			return zero, fmt.Errorf("reload %s: %w", r.entity, err)
		}
	}

	e.StampUpdate(now)
	if err := r.hooks.Run(ctx, BeforeUpdate, e); err != nil {
		return zero, err
	}

	merged, err := r.session.MergeAndFlush(ctx, e)
	if err != nil {
		return zero, fmt.Errorf("merge %s: %w", r.entity, err)
	}
	out, ok := merged.(T)
	if !ok {
		return zero, fmt.Errorf("merge %s: session returned %T", r.entity, merged)
	}

	logger.Debug(ctx, "entity merged", "entity", r.entity, "id", out.GetID())
	return out, nil
}

// Delete removes e by identity. Referential integrity is left to the store:
// a violation surfaces from the session unchanged.
func (r *Repository[T]) Delete(ctx context.Context, e T) error {
	if e.IsTransient() {
		return nil
	}
	if err := r.hooks.Run(ctx, BeforeDelete, e); err != nil {
		return err
	}
	if err := r.session.Remove(ctx, e); err != nil {
		return fmt.Errorf("remove %s: %w", r.entity, err)
	}
	return nil
}
