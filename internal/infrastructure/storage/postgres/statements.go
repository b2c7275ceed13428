package postgres

import (
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"

	"catalogstore/internal/core/entity"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// recordColumns returns r's db columns sorted by name with their values.
func recordColumns(r entity.Record) ([]string, []any) {
	data := entity.StructToMap(r)
	cols := make([]string, 0, len(data))
	for col := range data {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = data[col]
	}
	return cols, values
}

func insertStatement(r entity.Record) (string, []any, error) {
	cols, values := recordColumns(r)
	return psql.Insert(r.TableName()).Columns(cols...).Values(values...).ToSql()
}

// updateStatement sets every column except the key and date_create. ok is
// false when nothing is left to set.
func updateStatement(r entity.Record) (sql string, args []any, ok bool, err error) {
	set := entity.UpdateColumns(r)
	if len(set) == 0 {
		return "", nil, false, nil
	}

	sql, args, err = psql.Update(r.TableName()).
		SetMap(set).
		Where(squirrel.Eq(r.Key())).
		ToSql()
	return sql, args, true, err
}

func deleteStatement(table string, key map[string]any) (string, []any, error) {
	return psql.Delete(table).Where(squirrel.Eq(key)).ToSql()
}

// selectByKeyStatement reads every column of r's table for r's key.
func selectByKeyStatement(r entity.Record) (string, []any, error) {
	cols, _ := recordColumns(r)
	return psql.Select(cols...).
		From(r.TableName()).
		Where(squirrel.Eq(r.Key())).
		Limit(1).
		ToSql()
}

func describe(verb string, r entity.Record) string {
	return fmt.Sprintf("%s %s", verb, entity.IdentityKey(r))
}
