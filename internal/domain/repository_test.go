package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
)

type gadget struct {
	entity.BaseEntity
	entity.FetchPlanned
	Code  string        `db:"code"`
	Parts []*gadgetPart `db:"-"`
}

func (g *gadget) TableName() string { return "gadgets" }

type gadgetPart struct {
	GadgetID id.ID  `db:"gadget_id"`
	Name     string `db:"name"`
}

func (p *gadgetPart) TableName() string { return "gadget_parts" }
func (p *gadgetPart) Key() map[string]any { return map[string]any{"gadget_id": p.GadgetID, "name": p.Name} }
func (p *gadgetPart) OwnerID() id.ID { return p.GadgetID }

// fakeSession records calls and serves canned rows.
type fakeSession struct {
	calls    []string
	tracked  map[string]entity.Record
	getRow   *gadget
	parts    []*gadgetPart
	queries  []query.Query
	mergeErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{tracked: make(map[string]entity.Record)}
}

func (f *fakeSession) Tracked(r entity.Record) (entity.Record, bool) {
	t, ok := f.tracked[entity.IdentityKey(r)]
	return t, ok
}

func (f *fakeSession) Reload(context.Context, entity.Record) error {
	f.calls = append(f.calls, "reload")
	return nil
}

func (f *fakeSession) Persist(_ context.Context, r entity.Record) error {
	f.calls = append(f.calls, "persist")
	f.tracked[entity.IdentityKey(r)] = r
	return nil
}

func (f *fakeSession) MergeAndFlush(_ context.Context, r entity.Record) (entity.Record, error) {
	f.calls = append(f.calls, "merge")
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	target, ok := f.Tracked(r)
	if !ok {
		target = entity.New(r)
		f.tracked[entity.IdentityKey(r)] = target
	}
	if err := entity.CopyInto(target, r); err != nil {
		return nil, err
	}
	return target, nil
}

func (f *fakeSession) Remove(_ context.Context, r entity.Record) error {
	f.calls = append(f.calls, "remove")
	delete(f.tracked, entity.IdentityKey(r))
	return nil
}

func (f *fakeSession) Flush(context.Context) error {
	f.calls = append(f.calls, "flush")
	return nil
}

func (f *fakeSession) Get(_ context.Context, dst entity.Record, q query.Query) (bool, error) {
	f.queries = append(f.queries, q)
	if f.getRow == nil {
		return false, nil
	}
	*dst.(*gadget) = *f.getRow
	return true, nil
}

func (f *fakeSession) Select(_ context.Context, dst any, q query.Query) error {
	f.queries = append(f.queries, q)
	switch d := dst.(type) {
	case *[]*gadgetPart:
		*d = f.parts
	case *[]*gadget:
		if f.getRow != nil {
			cp := *f.getRow
			*d = []*gadget{&cp}
		}
	}
	return nil
}

const pathParts fetchplan.Path = "parts"

func newGadgetRepo(s Session, clock func() time.Time) *Repository[*gadget] {
	plans := fetchplan.NewRegistry()
	plans.Register("gadget", "bare", fetchplan.New("bare"))
	plans.Register("gadget", "with_parts", fetchplan.New("with_parts", pathParts))
	_ = plans.SetDefault("gadget", "bare")

	r := NewRepository(s, RepositoryConfig[*gadget]{
		Entity:       "gadget",
		Table:        "gadgets",
		Columns:      []string{"id", "date_create", "date_update", "code"},
		DefaultOrder: []query.Order{query.Asc("code")},
		Plans:        plans,
		New:          func() *gadget { return &gadget{} },
	}, WithClock(clock))

	r.RegisterLoader(pathParts, RelationLoad[*gadget, *gadgetPart]{
		Relation: query.Relation{Path: pathParts, Table: "gadget_parts", Alias: "gp", OwnerColumn: "gadget_id"},
		Columns:  []string{"gadget_id", "name"},
		Attach:   func(g *gadget, rows []*gadgetPart) { g.Parts = rows },
	}.Loader())
	return r
}

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func TestSaveOrUpdate_TransientSequence(t *testing.T) {
	s := newFakeSession()
	repo := newGadgetRepo(s, func() time.Time { return t0 })

	var seen []string
	repo.Hooks().OnBeforeCreate(func(_ context.Context, g *gadget) error {
		seen = append(seen, "create-hook")
		assert.Equal(t, t0, g.DateCreate, "created stamped before hooks")
		assert.True(t, g.IsTransient(), "id assigned after hooks")
		return nil
	})

	g := &gadget{Code: "G1"}
	saved, err := repo.SaveOrUpdate(context.Background(), g)
	require.NoError(t, err)

	assert.Same(t, g, saved)
	assert.Equal(t, []string{"create-hook"}, seen)
	assert.Equal(t, []string{"persist"}, s.calls)
	assert.False(t, saved.IsTransient())
	assert.Equal(t, t0, saved.DateUpdate)
}

func TestSaveOrUpdate_CreateHookErrorAborts(t *testing.T) {
	s := newFakeSession()
	repo := newGadgetRepo(s, func() time.Time { return t0 })
	boom := errors.New("boom")
	repo.Hooks().OnBeforeCreate(func(context.Context, *gadget) error { return boom })

	g := &gadget{}
	_, err := repo.SaveOrUpdate(context.Background(), g)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.calls)
	assert.True(t, g.IsTransient())
}

func TestSaveOrUpdate_PersistentSameInstanceSkipsReload(t *testing.T) {
	s := newFakeSession()
	repo := newGadgetRepo(s, func() time.Time { return t0 })

	g := &gadget{Code: "G1"}
	g.ID = id.New()
	s.tracked[entity.IdentityKey(g)] = g

	merged, err := repo.SaveOrUpdate(context.Background(), g)
	require.NoError(t, err)
	assert.Same(t, g, merged)
	assert.Equal(t, []string{"merge"}, s.calls)
}

func TestSaveOrUpdate_PersistentStaleCopyReloadsFirst(t *testing.T) {
	s := newFakeSession()
	repo := newGadgetRepo(s, func() time.Time { return t0 })

	gid := id.New()
	stale := &gadget{Code: "OLD"}
	stale.ID = gid
	s.tracked[entity.IdentityKey(stale)] = stale

	fresh := &gadget{Code: "NEW"}
	fresh.ID = gid

	merged, err := repo.SaveOrUpdate(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, []string{"reload", "merge"}, s.calls)
	assert.Same(t, stale, merged)
	assert.Equal(t, "NEW", merged.Code)
}

func TestSaveOrUpdate_MergeErrorPropagates(t *testing.T) {
	s := newFakeSession()
	s.mergeErr = errors.New("unique violation")
	repo := newGadgetRepo(s, func() time.Time { return t0 })

	g := &gadget{}
	g.ID = id.New()
	_, err := repo.SaveOrUpdate(context.Background(), g)
	assert.ErrorIs(t, err, s.mergeErr)
}

func TestDelete(t *testing.T) {
	s := newFakeSession()
	repo := newGadgetRepo(s, time.Now)

	require.NoError(t, repo.Delete(context.Background(), &gadget{}))
	assert.Empty(t, s.calls, "transient entities have nothing to remove")

	g := &gadget{}
	g.ID = id.New()
	require.NoError(t, repo.Delete(context.Background(), g))
	assert.Equal(t, []string{"remove"}, s.calls)
}

func TestFindOne_AttachesPlanAndHydrates(t *testing.T) {
	s := newFakeSession()
	gid := id.New()
	s.getRow = &gadget{Code: "G1"}
	s.getRow.ID = gid
	s.parts = []*gadgetPart{{GadgetID: gid, Name: "wheel"}, {GadgetID: id.New(), Name: "other"}}
	repo := newGadgetRepo(s, time.Now)

	g, err := repo.GetByID(context.Background(), gid, "with_parts")
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, "with_parts", g.FetchPlan().Name())
	require.Len(t, g.Parts, 1)
	assert.Equal(t, "wheel", g.Parts[0].Name)

	require.Len(t, s.queries, 2)
	assert.Equal(t, uint64(1), s.queries[0].Limit)
	assert.Equal(t, "gadget_parts", s.queries[1].Table)
	assert.Equal(t, query.OpIn, s.queries[1].Conditions[0].Op)
}

func TestFindOne_DefaultPlanSkipsRelations(t *testing.T) {
	s := newFakeSession()
	s.getRow = &gadget{Code: "G1"}
	s.getRow.ID = id.New()
	repo := newGadgetRepo(s, time.Now)

	g, err := repo.GetByID(context.Background(), s.getRow.ID, "unknown")
	require.NoError(t, err)
	assert.Equal(t, "bare", g.FetchPlan().Name())
	assert.Nil(t, g.Parts)
	assert.Len(t, s.queries, 1)
}

func TestFindOne_NotFound(t *testing.T) {
	repo := newGadgetRepo(newFakeSession(), time.Now)

	g, err := repo.GetByID(context.Background(), id.New())
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestFindMany_UsesDefaultOrder(t *testing.T) {
	s := newFakeSession()
	s.getRow = &gadget{Code: "G1"}
	s.getRow.ID = id.New()
	repo := newGadgetRepo(s, time.Now)

	got, err := repo.FindMany(context.Background(), repo.ResolvePlan("with_parts"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Parts)
	assert.Empty(t, got[0].Parts)
	assert.Equal(t, []query.Order{query.Asc("code")}, s.queries[0].Order)
}
