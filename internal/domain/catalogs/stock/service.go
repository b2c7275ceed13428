package stock

import (
	"context"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/domain"
)

// Service runs stock use cases, each inside its own unit of work.
type Service struct {
	uow   domain.UnitOfWork
	plans *fetchplan.Registry
	opts  []domain.Option
}

// NewService creates a stock service.
func NewService(uow domain.UnitOfWork, plans *fetchplan.Registry, opts ...domain.Option) *Service {
	return &Service{uow: uow, plans: plans, opts: opts}
}

func (s *Service) repo(sess domain.Session) *Repository {
	return NewRepository(sess, s.plans, s.opts...)
}

// Get returns the stock row or a NotFound error.
func (s *Service) Get(ctx context.Context, stockID id.ID) (*ProductSkuStock, error) {
	var out *ProductSkuStock
	err := domain.Read(ctx, s.uow, func(ctx context.Context, sess domain.Session) error {
		st, err := s.repo(sess).GetByID(ctx, stockID)
		if err != nil {
			return err
		}
		if st == nil {
			return apperror.NewNotFound(EntityName, stockID)
		}
		out = st
		return nil
	})
	return out, err
}

// Create validates and inserts a stock row. An unknown warehouse is rejected
// by the store's foreign key.
func (s *Service) Create(ctx context.Context, st *ProductSkuStock) (*ProductSkuStock, error) {
	if !st.IsTransient() {
		return nil, apperror.NewValidation("stock already has an id")
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	var out *ProductSkuStock
	err := s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		saved, err := s.repo(sess).SaveOrUpdate(ctx, st)
		out = saved
		return err
	})
	return out, err
}

// Update loads the row, applies mutate and saves the result.
func (s *Service) Update(ctx context.Context, stockID id.ID, mutate func(*ProductSkuStock) error) (*ProductSkuStock, error) {
	var out *ProductSkuStock
	err := s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		st, err := repo.GetByID(ctx, stockID)
		if err != nil {
			return err
		}
		if st == nil {
			return apperror.NewNotFound(EntityName, stockID)
		}
		if err := mutate(st); err != nil {
			return err
		}
		if err := st.Validate(); err != nil {
			return err
		}
		out, err = repo.SaveOrUpdate(ctx, st)
		return err
	})
	return out, err
}

// Delete removes the stock row.
func (s *Service) Delete(ctx context.Context, stockID id.ID) error {
	return s.uow.Do(ctx, func(ctx context.Context, sess domain.Session) error {
		repo := s.repo(sess)
		st, err := repo.GetByID(ctx, stockID)
		if err != nil {
			return err
		}
		if st == nil {
			return apperror.NewNotFound(EntityName, stockID)
		}
		return repo.Delete(ctx, st)
	})
}
