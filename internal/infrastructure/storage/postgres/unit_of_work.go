package postgres

import (
	"context"
	"fmt"

	"catalogstore/internal/core/tx"
	"catalogstore/internal/domain"
)

// UnitOfWork runs each Do in a transaction with a fresh Session.
// Consistency between concurrent units of work is whatever the manager's
// isolation level provides (READ COMMITTED by default).
type UnitOfWork struct {
	txm *TxManager
}

// NewUnitOfWork creates a unit of work factory.
func NewUnitOfWork(txm *TxManager) *UnitOfWork {
	return &UnitOfWork{txm: txm}
}

// Do runs fn and commits after flushing the session, or rolls back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s domain.Session) error) error {
	return u.run(ctx, u.txm, fn)
}

// ReadOnly runs fn in a READ ONLY transaction. A write flushed by fn makes
// PostgreSQL reject the statement and the transaction rolls back.
func (u *UnitOfWork) ReadOnly(ctx context.Context, fn func(ctx context.Context, s domain.Session) error) error {
	return u.run(ctx, readOnly{u.txm}, fn)
}

func (u *UnitOfWork) run(ctx context.Context, m tx.Manager, fn func(ctx context.Context, s domain.Session) error) error {
	return m.RunInTransaction(ctx, func(ctx context.Context) error {
		sess := NewSession(u.txm.GetQuerier(ctx))
		if err := fn(ctx, sess); err != nil {
			return err
		}
		if err := sess.Flush(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

// readOnly adapts a ReadOnlyManager to Manager.
type readOnly struct {
	m tx.ReadOnlyManager
}

func (r readOnly) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.m.ReadOnly(ctx, fn)
}

var (
	_ domain.ReadOnlyUnitOfWork = (*UnitOfWork)(nil)
	_ domain.Session            = (*Session)(nil)
)
