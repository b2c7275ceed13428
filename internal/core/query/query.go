// Package query builds read queries from a fetch plan and typed conditions.
//
// A Query keeps its structure (table, joins, conditions, ordering) so that a
// session can either render it to PostgreSQL through ToSql or evaluate it
// directly, as the in-memory store does.
package query

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"catalogstore/internal/core/fetchplan"
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpIn
)

// Relation describes a to-many relation stored in a table whose rows
// reference the root entity through OwnerColumn.
type Relation struct {
	// Path is the fetch-plan path that loads this relation eagerly.
	Path fetchplan.Path
	// Table holds the related rows (an association table or a child table).
	Table string
	// Alias is used when the relation is joined for filtering.
	Alias string
	// OwnerColumn references the root entity's id.
	OwnerColumn string
}

// Join is a LEFT OUTER JOIN of a relation table onto the root table.
type Join struct {
	Table       string
	Alias       string
	OwnerColumn string
	RootColumn  string
}

// Condition is a single filter. A nil Join means the column belongs to the root table.
type Condition struct {
	Join   *Join
	Column string
	Op     Op
	Value  any
}

// Eq filters root column == value.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

// In filters root column IN values. values must be a slice.
func In(column string, values any) Condition {
	return Condition{Column: column, Op: OpIn, Value: values}
}

// On moves the condition onto the given relation, joined through the root "id".
func (c Condition) On(rel Relation) Condition {
	c.Join = &Join{
		Table:       rel.Table,
		Alias:       rel.Alias,
		OwnerColumn: rel.OwnerColumn,
		RootColumn:  "id",
	}
	return c
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Query is an executable read over one root table.
type Query struct {
	Table      string
	Columns    []string
	Plan       fetchplan.Plan
	Joins      []Join
	Conditions []Condition
	Order      []Order
	Limit      uint64
}

// ToSql renders the query for PostgreSQL ($n placeholders).
// Root columns are qualified with the table name whenever a join is present.
func (q Query) ToSql() (string, []any, error) {
	qualify := len(q.Joins) > 0
	col := func(c string) string {
		if qualify {
			return q.Table + "." + c
		}
		return c
	}

	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = col(c)
	}

	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(cols...).
		From(q.Table)

	for _, j := range q.Joins {
		sb = sb.LeftJoin(fmt.Sprintf("%s %s ON %s.%s = %s",
			j.Table, j.Alias, j.Alias, j.OwnerColumn, col(j.RootColumn)))
	}

	for _, c := range q.Conditions {
		name := col(c.Column)
		if c.Join != nil {
			name = c.Join.Alias + "." + c.Column
		}
		// squirrel.Eq renders IN for slice values
		sb = sb.Where(squirrel.Eq{name: c.Value})
	}

	for _, o := range q.Order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		sb = sb.OrderBy(col(o.Column) + " " + dir)
	}

	if q.Limit > 0 {
		sb = sb.Limit(q.Limit)
	}

	return sb.ToSql()
}
