package warehouse

import (
	"context"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/domain"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/pkg/logger"
)

// ListFilter narrows List to warehouses linked to a market area or a delivery
// method. When both are set the market area wins.
type ListFilter struct {
	MarketAreaID     *int64
	DeliveryMethodID *int64
}

// Service runs warehouse use cases, each inside its own unit of work.
// Read use cases run read-only when the unit of work supports it.
type Service struct {
	uow   domain.UnitOfWork
	plans *fetchplan.Registry
	opts  []domain.Option
}

// NewService creates a warehouse service.
func NewService(uow domain.UnitOfWork, plans *fetchplan.Registry, opts ...domain.Option) *Service {
	return &Service{uow: uow, plans: plans, opts: opts}
}

func (s *Service) repo(sess domain.Session) *Repository {
	return NewRepository(sess, s.plans, s.opts...)
}

// Get returns the warehouse or a NotFound error.
func (s *Service) Get(ctx context.Context, warehouseID id.ID, sel ...fetchplan.Selector) (*Warehouse, error) {
	var out *Warehouse
	err := domain.Read(ctx, s.uow, func(ctx context.Context, sess domain.Session) error {
		w, err := s.repo(sess).GetByID(ctx, warehouseID, sel...)
		if err != nil {
			return err
		}
		if w == nil {
			return apperror.NewNotFound(EntityName, warehouseID)
		}
		out = w
		return nil
	})
	return out, err
}

// GetByCode returns the warehouse with the business code or a NotFound error.
func (s *Service) GetByCode(ctx context.Context, code string, sel ...fetchplan.Selector) (*Warehouse, error) {
	var out *Warehouse
	err := domain.Read(ctx, s.uow, func(ctx context.Context, sess domain.Session) error {
		w, err := s.repo(sess).GetByCode(ctx, code, sel...)
		if err != nil {
			return err
		}
		if w == nil {
			return apperror.NewNotFound(EntityName, code)
		}
		out = w
		return nil
	})
	return out, err
}

// List returns warehouses ordered by code.
func (s *Service) List(ctx context.Context, filter ListFilter, sel ...fetchplan.Selector) ([]*Warehouse, error) {
	var out []*Warehouse
	err := domain.Read(ctx, s.uow, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		var err error
		switch {
		case filter.MarketAreaID != nil:
			out, err = repo.FindByMarketArea(ctx, *filter.MarketAreaID, sel...)
		case filter.DeliveryMethodID != nil:
			out, err = repo.FindByDeliveryMethod(ctx, *filter.DeliveryMethodID, sel...)
		default:
			out, err = repo.FindAll(ctx, sel...)
		}
		return err
	})
	return out, err
}

// Create validates and inserts a new warehouse.
func (s *Service) Create(ctx context.Context, w *Warehouse) (*Warehouse, error) {
	if !w.IsTransient() {
		return nil, apperror.NewValidation("warehouse already has an id").
			WithDetail("id", w.ID.String())
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var out *Warehouse
	err := s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		saved, err := s.repo(sess).SaveOrUpdate(ctx, w)
		out = saved
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse created", "id", out.ID, "code", out.Code)
	return out, nil
}

// Update loads the warehouse, applies mutate and saves the result.
func (s *Service) Update(ctx context.Context, warehouseID id.ID, mutate func(*Warehouse) error) (*Warehouse, error) {
	var out *Warehouse
	err := s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		w, err := repo.GetByID(ctx, warehouseID, SelectBasic)
		if err != nil {
			return err
		}
		if w == nil {
			return apperror.NewNotFound(EntityName, warehouseID)
		}

		if err := mutate(w); err != nil {
			return err
		}
		if err := w.Validate(); err != nil {
			return err
		}

		out, err = repo.SaveOrUpdate(ctx, w)
		return err
	})
	return out, err
}

// Delete removes the warehouse. Existing links and stock rows make the
// store reject the removal.
func (s *Service) Delete(ctx context.Context, warehouseID id.ID) error {
	err := s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		w, err := repo.GetByID(ctx, warehouseID, SelectBasic)
		if err != nil {
			return err
		}
		if w == nil {
			return apperror.NewNotFound(EntityName, warehouseID)
		}
		return repo.Delete(ctx, w)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "warehouse deleted", "id", warehouseID)
	return nil
}

// LinkMarketArea links the warehouse to a market area, updating ordering and
// the default flag when the link exists.
func (s *Service) LinkMarketArea(ctx context.Context, link *WarehouseMarketArea) error {
	return s.withWarehouse(ctx, link.WarehouseID, func(ctx context.Context, repo *Repository) error {
		return repo.LinkMarketArea(ctx, link)
	})
}

// UnlinkMarketArea removes a market area link.
func (s *Service) UnlinkMarketArea(ctx context.Context, warehouseID id.ID, marketAreaID int64) error {
	return s.withWarehouse(ctx, warehouseID, func(ctx context.Context, repo *Repository) error {
		return repo.UnlinkMarketArea(ctx, warehouseID, marketAreaID)
	})
}

// LinkDeliveryMethod links the warehouse to a delivery method.
func (s *Service) LinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error {
	return s.withWarehouse(ctx, warehouseID, func(ctx context.Context, repo *Repository) error {
		return repo.LinkDeliveryMethod(ctx, warehouseID, deliveryMethodID)
	})
}

// UnlinkDeliveryMethod removes a delivery method link.
func (s *Service) UnlinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error {
	return s.withWarehouse(ctx, warehouseID, func(ctx context.Context, repo *Repository) error {
		return repo.UnlinkDeliveryMethod(ctx, warehouseID, deliveryMethodID)
	})
}

// Stocks lists the stock rows held by the warehouse.
func (s *Service) Stocks(ctx context.Context, warehouseID id.ID) ([]*stock.ProductSkuStock, error) {
	var out []*stock.ProductSkuStock
	err := domain.Read(ctx, s.uow, func(ctx context.Context, sess domain.Session) error {
		if err := s.mustExist(ctx, s.repo(sess), warehouseID); err != nil {
			return err
		}
		var err error
		out, err = stock.NewRepository(sess, s.plans, s.opts...).FindByWarehouse(ctx, warehouseID)
		return err
	})
	return out, err
}

// withWarehouse runs fn in a unit of work after checking the warehouse exists.
func (s *Service) withWarehouse(ctx context.Context, warehouseID id.ID, fn func(context.Context, *Repository) error) error {
	return s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		if err := s.mustExist(ctx, repo, warehouseID); err != nil {
			return err
		}
		return fn(ctx, repo)
	})
}

func (s *Service) mustExist(ctx context.Context, repo *Repository, warehouseID id.ID) error {
	w, err := repo.GetByID(ctx, warehouseID, SelectBasic)
	if err != nil {
		return err
	}
	if w == nil {
		return apperror.NewNotFound(EntityName, warehouseID)
	}
	return nil
}
