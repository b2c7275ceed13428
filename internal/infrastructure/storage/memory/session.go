package memory

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5/pgconn"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/query"
	"catalogstore/pkg/logger"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

type pendingOp struct {
	kind   opKind
	record entity.Record
	// key is captured at scheduling time for deletes.
	key map[string]any
}

// Session implements domain.Session over a Store.
// Sessions are not safe for concurrent use.
type Session struct {
	store    *Store
	identity map[string]entity.Record
	pending  []pendingOp
	readOnly bool
}

func newSession(store *Store) *Session {
	return &Session{
		store:    store,
		identity: make(map[string]entity.Record),
	}
}

// Tracked returns the instance tracked for r's identity.
func (s *Session) Tracked(r entity.Record) (entity.Record, bool) {
	t, ok := s.identity[entity.IdentityKey(r)]
	return t, ok
}

// Reload overwrites r with the stored row.
func (s *Session) Reload(ctx context.Context, r entity.Record) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	cols, ok := s.store.lookup(r.TableName(), r.Key())
	if !ok {
		return fmt.Errorf("reload %s: row not found", entity.IdentityKey(r))
	}
	if err := entity.Assign(r, cols); err != nil {
		return fmt.Errorf("reload %s: %w", entity.IdentityKey(r), err)
	}
	s.identity[entity.IdentityKey(r)] = r
	return nil
}

// Persist schedules an insert. The row is read from r at flush time.
func (s *Session) Persist(ctx context.Context, r entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.identity[entity.IdentityKey(r)] = r
	s.pending = append(s.pending, pendingOp{kind: opInsert, record: r})
	return nil
}

// MergeAndFlush copies r onto the tracked instance for its identity, loading
// it first when untracked. A record that is not stored yet is inserted.
func (s *Session) MergeAndFlush(ctx context.Context, r entity.Record) (entity.Record, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}

	target, tracked := s.Tracked(r)
	kind := opUpdate
	if !tracked {
		target = entity.New(r)
		cols, ok := s.store.lookup(r.TableName(), r.Key())
		if ok {
			if err := entity.Assign(target, cols); err != nil {
				return nil, err
			}
		} else {
			kind = opInsert
		}
	}

	if err := entity.MergeInto(target, r); err != nil {
		return nil, err
	}
	s.identity[entity.IdentityKey(target)] = target
	s.pending = append(s.pending, pendingOp{kind: kind, record: target})

	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return target, nil
}

// Remove schedules a delete by r's current key and stops tracking it.
func (s *Session) Remove(ctx context.Context, r entity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(s.identity, entity.IdentityKey(r))
	s.pending = append(s.pending, pendingOp{kind: opDelete, record: r, key: r.Key()})
	return nil
}

// Flush applies pending writes in order. The first failure stops the flush
// and is returned; the failed op and the ones after it are dropped.
func (s *Session) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return nil
	}

	ops := s.pending
	s.pending = nil
	if s.readOnly {
		return readOnlyViolation(ops[0])
	}
	for _, op := range ops {
		if err := s.apply(op); err != nil {
			return err
		}
	}

	logger.Debug(ctx, "memory session flushed", "ops", len(ops))
	return nil
}

func readOnlyViolation(op pendingOp) error {
	verb := [...]string{opInsert: "INSERT", opUpdate: "UPDATE", opDelete: "DELETE"}[op.kind]
	return &pgconn.PgError{
		Severity:  "ERROR",
		Code:      codeReadOnlyTransaction,
		Message:   fmt.Sprintf("cannot execute %s in a read-only transaction", verb),
		TableName: op.record.TableName(),
	}
}

func (s *Session) apply(op pendingOp) error {
	table := op.record.TableName()
	switch op.kind {
	case opInsert:
		return s.store.insert(table, op.record.Key(), entity.StructToMap(op.record))
	case opUpdate:
		ok, err := s.store.update(table, op.record.Key(), entity.UpdateColumns(op.record))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("update %s: row not found", entity.IdentityKey(op.record))
		}
		return nil
	case opDelete:
		return s.store.delete(table, op.key)
	}
	return fmt.Errorf("unknown op %d", op.kind)
}

// Get loads the first row matching q into dst and tracks dst.
func (s *Session) Get(ctx context.Context, dst entity.Record, q query.Query) (bool, error) {
	if err := s.Flush(ctx); err != nil {
		return false, err
	}

	q.Limit = 1
	rows := s.store.evaluate(q)
	if len(rows) == 0 {
		return false, nil
	}
	if err := entity.Assign(dst, project(rows[0], q.Columns)); err != nil {
		return false, err
	}
	s.identity[entity.IdentityKey(dst)] = dst
	return true, nil
}

// Select loads every row matching q into dst (*[]*T) and tracks the instances.
func (s *Session) Select(ctx context.Context, dst any, q query.Query) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}

	sv := reflect.ValueOf(dst)
	if sv.Kind() != reflect.Ptr || sv.Elem().Kind() != reflect.Slice ||
		sv.Elem().Type().Elem().Kind() != reflect.Ptr {
		return fmt.Errorf("select into %T: want pointer to slice of pointers", dst)
	}
	slice := sv.Elem()
	elemType := slice.Type().Elem().Elem()

	rows := s.store.evaluate(q)
	out := reflect.MakeSlice(slice.Type(), 0, len(rows))
	for _, r := range rows {
		inst := reflect.New(elemType)
		if err := entity.Assign(inst.Interface(), project(r, q.Columns)); err != nil {
			return err
		}
		if rec, ok := inst.Interface().(entity.Record); ok {
			s.identity[entity.IdentityKey(rec)] = rec
		}
		out = reflect.Append(out, inst)
	}
	slice.Set(out)
	return nil
}

func project(r map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		return r
	}
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}
