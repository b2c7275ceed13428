package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/query"
	"catalogstore/pkg/logger"
)

// ErrStaleRecord is returned when an update matched no row.
var ErrStaleRecord = errors.New("record no longer exists")

type queued struct {
	desc string
	// update statements must affect exactly one row
	update bool
}

// Session implements domain.Session over one Querier, normally a transaction.
// Writes are queued in a pgx.Batch and sent in one round trip on Flush;
// every read flushes first. Sessions are not safe for concurrent use.
type Session struct {
	q        Querier
	identity map[string]entity.Record
	batch    *pgx.Batch
	queued   []queued
}

// NewSession creates a session over q.
func NewSession(q Querier) *Session {
	return &Session{
		q:        q,
		identity: make(map[string]entity.Record),
		batch:    &pgx.Batch{},
	}
}

// Tracked returns the instance tracked for r's identity.
func (s *Session) Tracked(r entity.Record) (entity.Record, bool) {
	t, ok := s.identity[entity.IdentityKey(r)]
	return t, ok
}

// Reload overwrites r with its stored row.
func (s *Session) Reload(ctx context.Context, r entity.Record) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	found, err := s.load(ctx, r)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("reload %s: %w", entity.IdentityKey(r), ErrStaleRecord)
	}
	s.identity[entity.IdentityKey(r)] = r
	return nil
}

// Persist queues an INSERT built from r's current state.
func (s *Session) Persist(ctx context.Context, r entity.Record) error {
	sql, args, err := insertStatement(r)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	s.enqueue(describe("insert", r), false, sql, args)
	s.identity[entity.IdentityKey(r)] = r
	return nil
}

// MergeAndFlush copies r onto the tracked instance for its identity (loading
// it when untracked), writes it and flushes. An unstored record is inserted.
func (s *Session) MergeAndFlush(ctx context.Context, r entity.Record) (entity.Record, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}

	target, tracked := s.Tracked(r)
	insert := false
	if !tracked {
		target = entity.New(r)
		// load looks the row up by r's key
		if err := entity.CopyInto(target, r); err != nil {
			return nil, err
		}
		found, err := s.load(ctx, target)
		if err != nil {
			return nil, err
		}
		insert = !found
	}

	if err := entity.MergeInto(target, r); err != nil {
		return nil, err
	}
	s.identity[entity.IdentityKey(target)] = target

	if insert {
		if err := s.Persist(ctx, target); err != nil {
			return nil, err
		}
	} else {
		sql, args, ok, err := updateStatement(target)
		if err != nil {
			return nil, fmt.Errorf("build update: %w", err)
		}
		if ok {
			s.enqueue(describe("update", target), true, sql, args)
		}
	}

	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return target, nil
}

// Remove queues a DELETE by r's key and stops tracking r.
func (s *Session) Remove(ctx context.Context, r entity.Record) error {
	sql, args, err := deleteStatement(r.TableName(), r.Key())
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	s.enqueue(describe("delete", r), false, sql, args)
	delete(s.identity, entity.IdentityKey(r))
	return nil
}

func (s *Session) enqueue(desc string, update bool, sql string, args []any) {
	s.batch.Queue(sql, args...)
	s.queued = append(s.queued, queued{desc: desc, update: update})
}

// Flush sends queued writes in one batch. The first failing statement's
// error is returned; the enclosing transaction is then unusable.
func (s *Session) Flush(ctx context.Context) (err error) {
	if len(s.queued) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "session.flush",
		trace.WithAttributes(attribute.Int("session.statements", len(s.queued))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "flush failed")
		}
		span.End()
	}()

	batch, ops := s.batch, s.queued
	s.batch, s.queued = &pgx.Batch{}, nil

	results := s.q.SendBatch(ctx, batch)
	for _, op := range ops {
		tag, execErr := results.Exec()
		if execErr != nil {
			_ = results.Close()
			return fmt.Errorf("%s: %w", op.desc, execErr)
		}
		if op.update && tag.RowsAffected() == 0 {
			_ = results.Close()
			return fmt.Errorf("%s: %w", op.desc, ErrStaleRecord)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	logger.Debug(ctx, "session flushed", "statements", len(ops))
	return nil
}

// Get runs q and scans the first row into dst, which becomes tracked.
func (s *Session) Get(ctx context.Context, dst entity.Record, q query.Query) (bool, error) {
	if err := s.Flush(ctx); err != nil {
		return false, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, s.q, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("query %s: %w", q.Table, err)
	}

	s.identity[entity.IdentityKey(dst)] = dst
	return true, nil
}

// Select runs q and scans all rows into dst (*[]*T). Scanned records become tracked.
func (s *Session) Select(ctx context.Context, dst any, q query.Query) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, s.q, dst, sql, args...); err != nil {
		return fmt.Errorf("query %s: %w", q.Table, err)
	}

	items := reflect.ValueOf(dst).Elem()
	for i := 0; i < items.Len(); i++ {
		if rec, ok := items.Index(i).Interface().(entity.Record); ok {
			s.identity[entity.IdentityKey(rec)] = rec
		}
	}
	return nil
}

// load scans the stored row for r's key into r.
func (s *Session) load(ctx context.Context, r entity.Record) (bool, error) {
	sql, args, err := selectByKeyStatement(r)
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Get(ctx, s.q, r, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", entity.IdentityKey(r), err)
	}
	return true, nil
}
