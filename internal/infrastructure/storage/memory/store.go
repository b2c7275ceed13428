// Package memory is an in-process storage backend with the same session
// semantics as the PostgreSQL one: identity map, deferred writes, read-time
// flushes and unique/foreign-key enforcement. It backs tests and the
// server's -memory mode.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"catalogstore/internal/core/entity"
)

// Constraint violations carry the PostgreSQL SQLSTATE codes so callers can
// treat both backends alike.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeReadOnlyTransaction = "25006"
)

// Unique declares a unique constraint over columns of a table.
type Unique struct {
	Name    string
	Table   string
	Columns []string
}

// ForeignKey declares that Table.Column references RefTable.RefColumn.
type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

// Option configures a Store.
type Option func(*Store)

// WithUnique adds a unique constraint.
func WithUnique(u Unique) Option {
	return func(s *Store) { s.uniques = append(s.uniques, u) }
}

// WithForeignKey adds a foreign key.
func WithForeignKey(fk ForeignKey) Option {
	return func(s *Store) { s.foreignKeys = append(s.foreignKeys, fk) }
}

type row struct {
	seq  uint64
	cols map[string]any
}

type table map[string]*row

// Store holds tables of rows keyed by record identity.
type Store struct {
	mu     sync.RWMutex
	tables map[string]table
	seq    uint64

	// txMu serializes units of work.
	txMu sync.Mutex

	uniques     []Unique
	foreignKeys []ForeignKey
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{tables: make(map[string]table)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session opens a session that writes straight to the store on flush,
// outside any unit of work.
func (s *Store) Session() *Session {
	return newSession(s)
}

// Count returns the number of rows in a table.
func (s *Store) Count(tableName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[tableName])
}

// Ping reports the store as reachable unless ctx is already done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) snapshot() map[string]table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]table, len(s.tables))
	for name, t := range s.tables {
		cp := make(table, len(t))
		for k, r := range t {
			cp[k] = &row{seq: r.seq, cols: cloneRow(r.cols)}
		}
		snap[name] = cp
	}
	return snap
}

func (s *Store) restore(snap map[string]table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = snap
}

// rows returns copies of every row of a table in insertion order.
func (s *Store) rows(tableName string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[tableName]
	ordered := make([]*row, 0, len(t))
	for _, r := range t {
		ordered = append(ordered, r)
	}
	sortBySeq(ordered)

	out := make([]map[string]any, len(ordered))
	for i, r := range ordered {
		out[i] = cloneRow(r.cols)
	}
	return out
}

func (s *Store) lookup(tableName string, key map[string]any) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.tables[tableName][entity.FormatKey(tableName, key)]
	if !ok {
		return nil, false
	}
	return cloneRow(r.cols), true
}

func (s *Store) insert(tableName string, key, cols map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entity.FormatKey(tableName, key)
	t := s.table(tableName)
	if _, exists := t[k]; exists {
		return uniqueViolation(tableName+"_pkey", tableName, k)
	}
	if err := s.checkUnique(tableName, k, cols); err != nil {
		return err
	}
	if err := s.checkReferences(tableName, cols); err != nil {
		return err
	}

	s.seq++
	t[k] = &row{seq: s.seq, cols: cloneRow(cols)}
	return nil
}

// update overwrites the given columns of a stored row; columns absent from
// cols keep their stored values.
func (s *Store) update(tableName string, key, cols map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entity.FormatKey(tableName, key)
	t := s.table(tableName)
	existing, ok := t[k]
	if !ok {
		return false, nil
	}
	next := cloneRow(existing.cols)
	for col, v := range cols {
		next[col] = cloneValue(v)
	}
	if err := s.checkUnique(tableName, k, next); err != nil {
		return false, err
	}
	if err := s.checkReferences(tableName, next); err != nil {
		return false, err
	}
	if err := s.checkReferenced(tableName, existing.cols, next); err != nil {
		return false, err
	}

	existing.cols = next
	return true, nil
}

func (s *Store) delete(tableName string, key map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entity.FormatKey(tableName, key)
	t := s.table(tableName)
	existing, ok := t[k]
	if !ok {
		return nil
	}
	if err := s.checkReferenced(tableName, existing.cols, nil); err != nil {
		return err
	}
	delete(t, k)
	return nil
}

func (s *Store) table(name string) table {
	t, ok := s.tables[name]
	if !ok {
		t = make(table)
		s.tables[name] = t
	}
	return t
}

func (s *Store) checkUnique(tableName, self string, cols map[string]any) error {
	for _, u := range s.uniques {
		if u.Table != tableName {
			continue
		}
		for k, r := range s.tables[tableName] {
			if k == self {
				continue
			}
			same := true
			for _, c := range u.Columns {
				if !equal(r.cols[c], cols[c]) {
					same = false
					break
				}
			}
			if same {
				return uniqueViolation(u.Name, tableName, fmt.Sprint(u.Columns))
			}
		}
	}
	return nil
}

// checkReferences verifies outgoing foreign keys of a row being written.
func (s *Store) checkReferences(tableName string, cols map[string]any) error {
	for _, fk := range s.foreignKeys {
		if fk.Table != tableName {
			continue
		}
		v := normalize(cols[fk.Column])
		if v == nil {
			continue
		}
		if !s.exists(fk.RefTable, fk.RefColumn, v) {
			return foreignKeyViolation(fk, fmt.Sprintf(
				"insert or update on table %q violates foreign key constraint %q", fk.Table, fk.Name))
		}
	}
	return nil
}

// checkReferenced verifies no row still references old values that a delete
// (next == nil) or an update would remove.
func (s *Store) checkReferenced(tableName string, old, next map[string]any) error {
	for _, fk := range s.foreignKeys {
		if fk.RefTable != tableName {
			continue
		}
		v := old[fk.RefColumn]
		if normalize(v) == nil {
			continue
		}
		if next != nil && equal(v, next[fk.RefColumn]) {
			continue
		}
		if s.exists(fk.Table, fk.Column, v) {
			return foreignKeyViolation(fk, fmt.Sprintf(
				"update or delete on table %q violates foreign key constraint %q on table %q",
				fk.RefTable, fk.Name, fk.Table))
		}
	}
	return nil
}

func (s *Store) exists(tableName, column string, v any) bool {
	for _, r := range s.tables[tableName] {
		if equal(r.cols[column], v) {
			return true
		}
	}
	return false
}

func uniqueViolation(constraint, tableName, detail string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           codeUniqueViolation,
		Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		Detail:         detail,
		TableName:      tableName,
		ConstraintName: constraint,
	}
}

func foreignKeyViolation(fk ForeignKey, msg string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           codeForeignKeyViolation,
		Message:        msg,
		TableName:      fk.Table,
		ColumnName:     fk.Column,
		ConstraintName: fk.Name,
	}
}

// cloneRow copies a row, giving pointer values their own storage so that
// later writes through an entity field never reach the store.
func cloneRow(cols map[string]any) map[string]any {
	out := make(map[string]any, len(cols))
	for k, v := range cols {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return v
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface()
}
