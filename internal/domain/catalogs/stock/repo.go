package stock

import (
	"context"

	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
	"catalogstore/internal/domain"
)

// EntityName is the fetch-plan registry key for stocks.
const EntityName = "product_sku_stock"

// SelectDefault is the only plan stocks have: no relations.
const SelectDefault fetchplan.Selector = "default"

// RegisterPlans registers the stock plans and makes SelectDefault the default.
func RegisterPlans(reg *fetchplan.Registry) error {
	reg.Register(EntityName, SelectDefault, fetchplan.New(string(SelectDefault)))
	return reg.SetDefault(EntityName, SelectDefault)
}

// Repository reads and writes ProductSkuStock rows through a caller-owned session.
type Repository struct {
	base *domain.Repository[*ProductSkuStock]
}

// NewRepository binds a stock repository to session s.
func NewRepository(s domain.Session, plans *fetchplan.Registry, opts ...domain.Option) *Repository {
	base := domain.NewRepository(s, domain.RepositoryConfig[*ProductSkuStock]{
		Entity:       EntityName,
		Table:        TableName,
		Columns:      Columns,
		DefaultOrder: []query.Order{query.Asc("id")},
		Plans:        plans,
		New:          func() *ProductSkuStock { return &ProductSkuStock{} },
	}, opts...)

	normalize := func(_ context.Context, s *ProductSkuStock) error {
		s.Normalize()
		return nil
	}
	base.Hooks().OnBeforeCreate(normalize)
	base.Hooks().OnBeforeUpdate(normalize)

	return &Repository{base: base}
}

// GetByID returns the stock row, or nil when it does not exist.
// Stocks always load with the default plan.
func (r *Repository) GetByID(ctx context.Context, stockID id.ID) (*ProductSkuStock, error) {
	return r.base.GetByID(ctx, stockID)
}

// FindByWarehouse lists the stock rows of one warehouse ordered by id.
func (r *Repository) FindByWarehouse(ctx context.Context, warehouseID id.ID) ([]*ProductSkuStock, error) {
	return r.base.FindMany(ctx, r.base.ResolvePlan(), query.Eq("warehouse_id", warehouseID))
}

// SaveOrUpdate inserts a transient row or merges a persistent one.
func (r *Repository) SaveOrUpdate(ctx context.Context, s *ProductSkuStock) (*ProductSkuStock, error) {
	return r.base.SaveOrUpdate(ctx, s)
}

// Delete removes the row by identity.
func (r *Repository) Delete(ctx context.Context, s *ProductSkuStock) error {
	return r.base.Delete(ctx, s)
}
