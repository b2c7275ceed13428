package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"catalogstore/internal/core/entity"
)

// BatchInserter bulk-loads rows with the COPY protocol. It bypasses sessions:
// copied rows are neither tracked nor hooked, so callers stamp ids and
// timestamps themselves.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice copies rows (each matching columns) into table.
// Must run inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// CopyRecords copies records of one table using their db-tagged fields.
func CopyRecords[T entity.Record](ctx context.Context, b *BatchInserter, columns []string, records []T) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		values, err := entity.Columns(r, columns)
		if err != nil {
			return 0, err
		}
		rows = append(rows, values)
	}
	return b.CopyFromSlice(ctx, records[0].TableName(), columns, rows)
}
