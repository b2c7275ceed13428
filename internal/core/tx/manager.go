// Package tx defines transaction management contracts so that callers do not
// depend on a concrete database driver.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction: committed when fn succeeds, rolled
// back when it fails. Nested calls join the transaction already in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
