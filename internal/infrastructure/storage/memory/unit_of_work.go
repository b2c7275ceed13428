package memory

import (
	"context"
	"fmt"

	"catalogstore/internal/domain"
	"catalogstore/pkg/logger"
)

// UnitOfWork runs units of work one at a time against a Store.
// A failed unit of work restores the store to its state at Begin.
type UnitOfWork struct {
	store *Store
}

// NewUnitOfWork creates a unit of work factory for store.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Do runs fn with a fresh session, flushing on success.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s domain.Session) error) (err error) {
	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()

	snap := u.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			u.store.restore(snap)
			panic(p)
		}
		if err != nil {
			u.store.restore(snap)
			logger.Debug(ctx, "memory unit of work rolled back", "error", err)
		}
	}()

	sess := newSession(u.store)
	if err = fn(ctx, sess); err != nil {
		return err
	}
	if err = sess.Flush(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadOnly runs fn with a session that refuses to flush writes, failing
// with the SQLSTATE PostgreSQL uses for writes in a READ ONLY transaction.
func (u *UnitOfWork) ReadOnly(ctx context.Context, fn func(ctx context.Context, s domain.Session) error) error {
	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()

	sess := newSession(u.store)
	sess.readOnly = true
	if err := fn(ctx, sess); err != nil {
		return err
	}
	return sess.Flush(ctx)
}

var _ domain.ReadOnlyUnitOfWork = (*UnitOfWork)(nil)
var _ domain.Session = (*Session)(nil)
