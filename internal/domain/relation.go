package domain

import (
	"context"
	"fmt"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/query"
)

// RelationLoad describes how to batch-load one to-many relation.
type RelationLoad[T entity.Entity, R entity.Owned] struct {
	Relation query.Relation
	Columns  []string
	Order    []query.Order
	// Attach hands an owner its rows. rows is never nil.
	Attach func(owner T, rows []R)
}

// Loader returns a Loader that fetches the relation rows of all owners
// with a single IN query and distributes them by owner.
func (l RelationLoad[T, R]) Loader() Loader[T] {
	return func(ctx context.Context, s Session, owners []T) error {
		ids := make([]id.ID, 0, len(owners))
		for _, o := range owners {
			ids = append(ids, o.GetID())
		}

		q := query.Query{
			Table:      l.Relation.Table,
			Columns:    l.Columns,
			Conditions: []query.Condition{query.In(l.Relation.OwnerColumn, ids)},
			Order:      l.Order,
		}

		var rows []R
		if err := s.Select(ctx, &rows, q); err != nil {
			return fmt.Errorf("load %s: %w", l.Relation.Path, err)
		}

		byOwner := make(map[id.ID][]R, len(owners))
		for _, row := range rows {
			byOwner[row.OwnerID()] = append(byOwner[row.OwnerID()], row)
		}

		for _, o := range owners {
			rs := byOwner[o.GetID()]
			if rs == nil {
				rs = []R{}
			}
			l.Attach(o, rs)
		}
		return nil
	}
}
