package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
	"catalogstore/internal/domain"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
)

func newWarehouse(code string) *warehouse.Warehouse {
	w := warehouse.NewWarehouse(code, "Warehouse "+code)
	w.ID = id.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.DateCreate, w.DateUpdate = now, now
	return w
}

func byCode(code string) query.Query {
	return query.Query{
		Table:      warehouse.TableName,
		Columns:    warehouse.Columns,
		Conditions: []query.Condition{query.Eq("code", code)},
	}
}

func pgCode(t *testing.T, err error) string {
	t.Helper()
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "want *pgconn.PgError, got %v", err)
	return pgErr.Code
}

func TestSession_WritesDeferredUntilRead(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	s := store.Session()

	w := newWarehouse("AAA")
	require.NoError(t, s.Persist(ctx, w))
	assert.Equal(t, 0, store.Count(warehouse.TableName))

	got := &warehouse.Warehouse{}
	found, err := s.Get(ctx, got, byCode("AAA"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, store.Count(warehouse.TableName))
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, "Warehouse AAA", got.Name)

	tracked, ok := s.Tracked(w)
	require.True(t, ok)
	assert.Same(t, got, tracked)
}

func TestSession_StoredRowIsolatedFromEntity(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	s := store.Session()

	city := "Lyon"
	w := newWarehouse("AAA")
	w.City = &city
	require.NoError(t, s.Persist(ctx, w))
	require.NoError(t, s.Flush(ctx))

	*w.City = "Paris"

	got := &warehouse.Warehouse{}
	_, err := store.Session().Get(ctx, got, byCode("AAA"))
	require.NoError(t, err)
	require.NotNil(t, got.City)
	assert.Equal(t, "Lyon", *got.City)
}

func TestSession_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore().Session()

	require.NoError(t, s.Persist(ctx, newWarehouse("AAA")))
	require.NoError(t, s.Persist(ctx, newWarehouse("AAA")))

	err := s.Flush(ctx)
	require.Error(t, err)
	assert.Equal(t, "23505", pgCode(t, err))
}

func TestSession_FailedFlushDropsPending(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	s := store.Session()

	require.NoError(t, s.Persist(ctx, newWarehouse("AAA")))
	require.NoError(t, s.Persist(ctx, newWarehouse("AAA")))
	require.NoError(t, s.Persist(ctx, newWarehouse("BBB")))
	require.Error(t, s.Flush(ctx))

	// the duplicate is not retried by later reads
	require.NoError(t, s.Flush(ctx))
	found, err := s.Get(ctx, &warehouse.Warehouse{}, byCode("AAA"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, store.Count(warehouse.TableName))
}

func TestSession_RemoveReferencedRow(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore().Session()

	w := newWarehouse("AAA")
	require.NoError(t, s.Persist(ctx, w))
	require.NoError(t, s.Persist(ctx, &warehouse.WarehouseMarketArea{WarehouseID: w.ID, MarketAreaID: 5}))
	require.NoError(t, s.Flush(ctx))

	require.NoError(t, s.Remove(ctx, w))
	err := s.Flush(ctx)
	require.Error(t, err)
	assert.Equal(t, "23503", pgCode(t, err))
}

func TestSession_InsertWithUnknownReference(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore().Session()

	st := stock.NewProductSkuStock(10, id.New())
	st.ID = id.New()
	require.NoError(t, s.Persist(ctx, st))

	err := s.Flush(ctx)
	require.Error(t, err)
	assert.Equal(t, "23503", pgCode(t, err))
}

func TestSession_MergeUntracked(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	w := newWarehouse("AAA")
	seed := store.Session()
	require.NoError(t, seed.Persist(ctx, w))
	require.NoError(t, seed.Flush(ctx))

	detached := *w
	detached.Name = "Renamed"

	s := store.Session()
	merged, err := s.MergeAndFlush(ctx, &detached)
	require.NoError(t, err)
	assert.NotSame(t, &detached, merged)
	assert.Equal(t, "Renamed", merged.(*warehouse.Warehouse).Name)

	got := &warehouse.Warehouse{}
	_, err = store.Session().Get(ctx, got, byCode("AAA"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestSession_MergeDetachedKeepsDateCreate(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	w := newWarehouse("AAA")
	seed := store.Session()
	require.NoError(t, seed.Persist(ctx, w))
	require.NoError(t, seed.Flush(ctx))

	detached := warehouse.NewWarehouse("AAA", "Renamed")
	detached.ID = w.ID
	merged, err := store.Session().MergeAndFlush(ctx, detached)
	require.NoError(t, err)
	assert.Equal(t, w.DateCreate, merged.(*warehouse.Warehouse).DateCreate)

	got := &warehouse.Warehouse{}
	_, err = store.Session().Get(ctx, got, byCode("AAA"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, w.DateCreate, got.DateCreate)
}

func TestSession_MergeUnstoredInserts(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	w := newWarehouse("AAA")
	_, err := store.Session().MergeAndFlush(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count(warehouse.TableName))
}

func TestSession_ReloadDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore().Session()

	w := newWarehouse("AAA")
	require.NoError(t, s.Persist(ctx, w))
	require.NoError(t, s.Flush(ctx))

	w.Name = "dirty"
	require.NoError(t, s.Reload(ctx, w))
	assert.Equal(t, "Warehouse AAA", w.Name)
}

func TestSession_SelectJoinFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore().Session()

	bbb, aaa, ccc := newWarehouse("BBB"), newWarehouse("AAA"), newWarehouse("CCC")
	for _, w := range []*warehouse.Warehouse{bbb, aaa, ccc} {
		require.NoError(t, s.Persist(ctx, w))
	}
	require.NoError(t, s.Persist(ctx, &warehouse.WarehouseMarketArea{WarehouseID: bbb.ID, MarketAreaID: 5}))
	require.NoError(t, s.Persist(ctx, &warehouse.WarehouseMarketArea{WarehouseID: aaa.ID, MarketAreaID: 5}))
	require.NoError(t, s.Persist(ctx, &warehouse.WarehouseMarketArea{WarehouseID: ccc.ID, MarketAreaID: 6}))

	b := query.NewBuilder(warehouse.TableName, warehouse.Columns, query.Asc("code"))
	q := b.List(fetchplan.Plan{}, query.Eq("market_area_id", 5).On(warehouse.MarketAreas))

	var got []*warehouse.Warehouse
	require.NoError(t, s.Select(ctx, &got, q))
	require.Len(t, got, 2)
	assert.Equal(t, "AAA", got[0].Code)
	assert.Equal(t, "BBB", got[1].Code)
}

func TestUnitOfWork_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	uow := NewUnitOfWork(store)

	boom := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context, s domain.Session) error {
		require.NoError(t, s.Persist(ctx, newWarehouse("AAA")))
		require.NoError(t, s.Flush(ctx))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Count(warehouse.TableName))
}

func TestUnitOfWork_CommitFlushesPending(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()

	err := NewUnitOfWork(store).Do(ctx, func(ctx context.Context, s domain.Session) error {
		return s.Persist(ctx, newWarehouse("AAA"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count(warehouse.TableName))
}

func TestUnitOfWork_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	uow := NewUnitOfWork(store)

	err := uow.ReadOnly(ctx, func(ctx context.Context, s domain.Session) error {
		return s.Persist(ctx, newWarehouse("AAA"))
	})
	require.Error(t, err)
	assert.Equal(t, "25006", pgCode(t, err))
	assert.Equal(t, 0, store.Count(warehouse.TableName))
}

func TestUnitOfWork_ReadOnlyReads(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore()
	uow := NewUnitOfWork(store)
	require.NoError(t, uow.Do(ctx, func(ctx context.Context, s domain.Session) error {
		return s.Persist(ctx, newWarehouse("AAA"))
	}))

	var found bool
	err := uow.ReadOnly(ctx, func(ctx context.Context, s domain.Session) error {
		var err error
		found, err = s.Get(ctx, &warehouse.Warehouse{}, byCode("AAA"))
		return err
	})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCompare_NullsLast(t *testing.T) {
	s := "a"
	var none *string

	assert.Equal(t, -1, compare(&s, none))
	assert.Equal(t, 1, compare(nil, "a"))
	assert.Equal(t, 0, compare(int32(3), int64(3)))
	assert.False(t, equal(nil, nil))
	assert.True(t, equal(int64(5), 5))
}
