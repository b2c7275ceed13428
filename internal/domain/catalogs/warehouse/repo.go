package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
	"catalogstore/internal/domain"
	"catalogstore/internal/domain/catalogs/stock"
)

// Repository is the Warehouse read/write surface over a caller-owned session.
type Repository struct {
	base *domain.Repository[*Warehouse]
}

// NewRepository binds a warehouse repository to session s.
func NewRepository(s domain.Session, plans *fetchplan.Registry, opts ...domain.Option) *Repository {
	base := domain.NewRepository(s, domain.RepositoryConfig[*Warehouse]{
		Entity:       EntityName,
		Table:        TableName,
		Columns:      Columns,
		DefaultOrder: []query.Order{query.Asc("code")},
		Plans:        plans,
		New:          func() *Warehouse { return &Warehouse{} },
	}, opts...)

	base.RegisterLoader(PathMarketAreas, domain.RelationLoad[*Warehouse, *WarehouseMarketArea]{
		Relation: MarketAreas,
		Columns:  marketAreaColumns,
		Order:    []query.Order{query.Asc("ordering"), query.Asc("market_area_id")},
		Attach:   func(w *Warehouse, rows []*WarehouseMarketArea) { w.MarketAreas = rows },
	}.Loader())

	base.RegisterLoader(PathDeliveryMethods, domain.RelationLoad[*Warehouse, *WarehouseDeliveryMethod]{
		Relation: DeliveryMethods,
		Columns:  deliveryMethodColumns,
		Order:    []query.Order{query.Asc("delivery_method_id")},
		Attach:   func(w *Warehouse, rows []*WarehouseDeliveryMethod) { w.DeliveryMethods = rows },
	}.Loader())

	base.RegisterLoader(PathStocks, domain.RelationLoad[*Warehouse, *stock.ProductSkuStock]{
		Relation: Stocks,
		Columns:  stock.Columns,
		Order:    []query.Order{query.Asc("id")},
		Attach:   func(w *Warehouse, rows []*stock.ProductSkuStock) { w.Stocks = rows },
	}.Loader())

	base.Hooks().OnBeforeCreate(ensureCode)
	base.Hooks().OnBeforeUpdate(ensureCode)

	return &Repository{base: base}
}

// ensureCode fills a blank business code with a random token.
func ensureCode(_ context.Context, w *Warehouse) error {
	if strings.TrimSpace(w.Code) == "" {
		w.Code = id.Token()
	}
	return nil
}

// GetByID returns the warehouse with the given id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, warehouseID id.ID, sel ...fetchplan.Selector) (*Warehouse, error) {
	return r.base.GetByID(ctx, warehouseID, sel...)
}

// GetByCode returns the warehouse with the given business code, or nil when absent.
func (r *Repository) GetByCode(ctx context.Context, code string, sel ...fetchplan.Selector) (*Warehouse, error) {
	return r.base.FindOne(ctx, r.base.ResolvePlan(sel...), query.Eq("code", code))
}

// FindAll lists every warehouse ordered by code.
func (r *Repository) FindAll(ctx context.Context, sel ...fetchplan.Selector) ([]*Warehouse, error) {
	return r.base.FindMany(ctx, r.base.ResolvePlan(sel...))
}

// FindByMarketArea lists the warehouses serving a market area, ordered by code.
func (r *Repository) FindByMarketArea(ctx context.Context, marketAreaID int64, sel ...fetchplan.Selector) ([]*Warehouse, error) {
	return r.base.FindMany(ctx, r.base.ResolvePlan(sel...),
		query.Eq("market_area_id", marketAreaID).On(MarketAreas))
}

// FindByDeliveryMethod lists the warehouses shipping with a delivery method, ordered by code.
func (r *Repository) FindByDeliveryMethod(ctx context.Context, deliveryMethodID int64, sel ...fetchplan.Selector) ([]*Warehouse, error) {
	return r.base.FindMany(ctx, r.base.ResolvePlan(sel...),
		query.Eq("delivery_method_id", deliveryMethodID).On(DeliveryMethods))
}

// SaveOrUpdate inserts a transient warehouse or merges a persistent one.
// A blank code is replaced with a generated token in both cases.
func (r *Repository) SaveOrUpdate(ctx context.Context, w *Warehouse) (*Warehouse, error) {
	return r.base.SaveOrUpdate(ctx, w)
}

// Delete removes the warehouse. Links and stock rows referencing it must be
// removed first; the store rejects dangling references.
func (r *Repository) Delete(ctx context.Context, w *Warehouse) error {
	return r.base.Delete(ctx, w)
}

// LinkMarketArea creates or updates the link between a warehouse and a market area.
func (r *Repository) LinkMarketArea(ctx context.Context, link *WarehouseMarketArea) error {
	if id.IsNil(link.WarehouseID) {
		return fmt.Errorf("link market area %d: warehouse is transient", link.MarketAreaID)
	}
	return r.upsertLink(ctx, link, &WarehouseMarketArea{}, marketAreaColumns)
}

// UnlinkMarketArea removes the link between a warehouse and a market area.
func (r *Repository) UnlinkMarketArea(ctx context.Context, warehouseID id.ID, marketAreaID int64) error {
	link := &WarehouseMarketArea{WarehouseID: warehouseID, MarketAreaID: marketAreaID}
	if err := r.base.Session().Remove(ctx, link); err != nil {
		return fmt.Errorf("unlink market area %d: %w", marketAreaID, err)
	}
	return nil
}

// LinkDeliveryMethod links a warehouse to a delivery method. Linking twice is a no-op.
func (r *Repository) LinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error {
	if id.IsNil(warehouseID) {
		return fmt.Errorf("link delivery method %d: warehouse is transient", deliveryMethodID)
	}
	link := &WarehouseDeliveryMethod{WarehouseID: warehouseID, DeliveryMethodID: deliveryMethodID}
	return r.upsertLink(ctx, link, &WarehouseDeliveryMethod{}, deliveryMethodColumns)
}

// UnlinkDeliveryMethod removes the link between a warehouse and a delivery method.
func (r *Repository) UnlinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error {
	link := &WarehouseDeliveryMethod{WarehouseID: warehouseID, DeliveryMethodID: deliveryMethodID}
	if err := r.base.Session().Remove(ctx, link); err != nil {
		return fmt.Errorf("unlink delivery method %d: %w", deliveryMethodID, err)
	}
	return nil
}

// upsertLink persists link when no row with its key exists and merges it otherwise.
// stored receives the stored row during the existence check.
func (r *Repository) upsertLink(ctx context.Context, link, stored entity.Record, columns []string) error {
	s := r.base.Session()

	key := link.Key()
	cols := make([]string, 0, len(key))
	for col := range key {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	q := query.Query{Table: link.TableName(), Columns: columns, Limit: 1}
	for _, col := range cols {
		q.Conditions = append(q.Conditions, query.Eq(col, key[col]))
	}

	found, err := s.Get(ctx, stored, q)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", link.TableName(), err)
	}
	if !found {
		if err := s.Persist(ctx, link); err != nil {
			return fmt.Errorf("persist %s: %w", link.TableName(), err)
		}
		return s.Flush(ctx)
	}
	if _, err := s.MergeAndFlush(ctx, link); err != nil {
		return fmt.Errorf("merge %s: %w", link.TableName(), err)
	}
	return nil
}
