package query

import (
	"slices"

	"catalogstore/internal/core/fetchplan"
)

// Builder produces queries for one root table.
type Builder struct {
	table        string
	columns      []string
	defaultOrder []Order
}

// NewBuilder creates a builder. defaultOrder is applied to every List query.
func NewBuilder(table string, columns []string, defaultOrder ...Order) *Builder {
	return &Builder{
		table:        table,
		columns:      slices.Clone(columns),
		defaultOrder: defaultOrder,
	}
}

// Table returns the root table name.
func (b *Builder) Table() string { return b.table }

// Columns returns a copy of the selected columns.
func (b *Builder) Columns() []string { return slices.Clone(b.columns) }

// One builds a single-row lookup: no ordering, LIMIT 1.
func (b *Builder) One(plan fetchplan.Plan, conds ...Condition) Query {
	q := b.build(plan, conds)
	q.Limit = 1
	return q
}

// List builds a multi-row query ordered by the builder's default order.
func (b *Builder) List(plan fetchplan.Plan, conds ...Condition) Query {
	q := b.build(plan, conds)
	q.Order = slices.Clone(b.defaultOrder)
	return q
}

// build attaches the plan before any restriction, then the conditions.
// Relation conditions add one LEFT JOIN per alias.
func (b *Builder) build(plan fetchplan.Plan, conds []Condition) Query {
	q := Query{
		Table:   b.table,
		Columns: slices.Clone(b.columns),
		Plan:    plan,
	}

	for _, c := range conds {
		if c.Join != nil && !q.hasJoin(c.Join.Alias) {
			q.Joins = append(q.Joins, *c.Join)
		}
		q.Conditions = append(q.Conditions, c)
	}

	return q
}

func (q Query) hasJoin(alias string) bool {
	for _, j := range q.Joins {
		if j.Alias == alias {
			return true
		}
	}
	return false
}
