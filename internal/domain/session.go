// Package domain holds the persistence contracts and the generic repository
// the catalog aggregates are built on.
package domain

import (
	"context"

	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/query"
)

// Session is the unit-of-work scoped persistence context a repository works in.
// It is owned by the caller: repositories never open, commit or close it.
//
// Sessions keep an identity map: every record they load or persist is tracked
// until the unit of work ends. Writes may be deferred until Flush; reads flush
// pending writes first so they always observe the unit of work's own changes.
type Session interface {
	// Tracked returns the instance tracked for r's identity, if any.
	Tracked(r entity.Record) (entity.Record, bool)

	// Reload overwrites r with the authoritative stored state.
	Reload(ctx context.Context, r entity.Record) error

	// Persist schedules an insert of r and starts tracking it.
	Persist(ctx context.Context, r entity.Record) error

	// MergeAndFlush copies r's state onto the tracked instance for its identity
	// (tracking a new copy when there is none), writes it and flushes.
	// The returned instance is the authoritative one.
	MergeAndFlush(ctx context.Context, r entity.Record) (entity.Record, error)

	// Remove schedules deletion of r by identity and stops tracking it.
	Remove(ctx context.Context, r entity.Record) error

	// Flush executes all pending writes.
	Flush(ctx context.Context) error

	// Get runs a single-row query into dst. found is false when no row matched.
	Get(ctx context.Context, dst entity.Record, q query.Query) (found bool, err error)

	// Select runs a multi-row query into dst, a pointer to a slice of record pointers.
	Select(ctx context.Context, dst any, q query.Query) error
}

// UnitOfWork opens a session, runs fn and commits, or rolls back when fn fails.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

// ReadOnlyUnitOfWork can also run fn in a read-only transaction. Writes
// flushed from such a session fail.
type ReadOnlyUnitOfWork interface {
	UnitOfWork
	ReadOnly(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

// Read runs fn read-only when uow supports it and through Do otherwise.
func Read(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, s Session) error) error {
	if ro, ok := uow.(ReadOnlyUnitOfWork); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return uow.Do(ctx, fn)
}
