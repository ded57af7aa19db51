package dbmap

import (
	"context"
	"database/sql"
)

// DBTX captures the query operations shared by *sql.DB and *sql.Tx.
// The Database executes against a DBTX so the same operation surface can
// run inside or outside a transaction scope.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
