package memory

import (
	"bytes"
	"cmp"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalogstore/internal/core/query"
)

// evaluate runs q against the store: filter, order, limit.
// A relation condition holds when some row of the relation table that points
// at the root row satisfies every condition on the same alias, which is what
// the LEFT JOIN + WHERE rendering returns for unique association keys.
func (s *Store) evaluate(q query.Query) []map[string]any {
	rootConds, joinConds := splitConditions(q.Conditions)

	joined := make(map[string][]map[string]any, len(q.Joins))
	for _, j := range q.Joins {
		joined[j.Alias] = s.rows(j.Table)
	}

	var out []map[string]any
	for _, r := range s.rows(q.Table) {
		if !matchAll(r, rootConds) {
			continue
		}
		ok := true
		for _, j := range q.Joins {
			if !matchJoin(r, j, joined[j.Alias], joinConds[j.Alias]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}

	if len(q.Order) > 0 {
		slices.SortStableFunc(out, func(a, b map[string]any) int {
			for _, o := range q.Order {
				c := compare(a[o.Column], b[o.Column])
				if o.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if q.Limit > 0 && uint64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func splitConditions(conds []query.Condition) ([]query.Condition, map[string][]query.Condition) {
	var root []query.Condition
	joins := make(map[string][]query.Condition)
	for _, c := range conds {
		if c.Join == nil {
			root = append(root, c)
			continue
		}
		joins[c.Join.Alias] = append(joins[c.Join.Alias], c)
	}
	return root, joins
}

func matchJoin(root map[string]any, j query.Join, rows []map[string]any, conds []query.Condition) bool {
	if len(conds) == 0 {
		return true
	}
	for _, r := range rows {
		if equal(r[j.OwnerColumn], root[j.RootColumn]) && matchAll(r, conds) {
			return true
		}
	}
	return false
}

func matchAll(r map[string]any, conds []query.Condition) bool {
	for _, c := range conds {
		if !match(r[c.Column], c) {
			return false
		}
	}
	return true
}

func match(v any, c query.Condition) bool {
	switch c.Op {
	case query.OpIn:
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice {
			return equal(v, c.Value)
		}
		for i := 0; i < rv.Len(); i++ {
			if equal(v, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	default:
		return equal(v, c.Value)
	}
}

// normalize maps values to a small set of comparable kinds: pointers are
// dereferenced, integers widen to int64 and floats to float64.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case string, bool, int64, float64, uuid.UUID, time.Time, decimal.Decimal:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	}
	return v
}

// equal follows SQL: NULL equals nothing, not even NULL.
func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if na == nil || nb == nil {
		return false
	}
	if da, ok := na.(decimal.Decimal); ok {
		db, ok := nb.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	if ta, ok := na.(time.Time); ok {
		tb, ok := nb.(time.Time)
		return ok && ta.Equal(tb)
	}
	if !reflect.TypeOf(na).Comparable() || reflect.TypeOf(na) != reflect.TypeOf(nb) {
		return false
	}
	return na == nb
}

// compare orders values ascending with NULLs last, as PostgreSQL does.
func compare(a, b any) int {
	na, nb := normalize(a), normalize(b)
	switch {
	case na == nil && nb == nil:
		return 0
	case na == nil:
		return 1
	case nb == nil:
		return -1
	}

	switch x := na.(type) {
	case string:
		if y, ok := nb.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := nb.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := nb.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := nb.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case uuid.UUID:
		if y, ok := nb.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:])
		}
	case time.Time:
		if y, ok := nb.(time.Time); ok {
			return x.Compare(y)
		}
	case decimal.Decimal:
		if y, ok := nb.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	}
	return 0
}

func sortBySeq(rows []*row) {
	slices.SortFunc(rows, func(a, b *row) int { return cmp.Compare(a.seq, b.seq) })
}
