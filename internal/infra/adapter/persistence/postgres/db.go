package postgres

import (
	"context"
	"database/sql"
)

// DB is the minimal database surface the repositories use. Both *sql.DB and
// circuitbreaker.DBCircuitBreaker satisfy it, so production wiring can put a
// circuit breaker in front of every query without the repositories knowing.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
