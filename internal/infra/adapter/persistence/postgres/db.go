package postgres

import (
	"context"
	"database/sql"
)

// DB is the database surface the repositories depend on. Both *sql.DB and
// the circuit breaker wrapper in internal/resilience/circuitbreaker satisfy
// it, so the binaries choose whether repository calls go through breaker
// protection.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
