package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// ConnKey carries a transaction or acquired connection through a context so
// that repositories participate in an enclosing transaction transparently.
const ConnKey contextKey = "db_conn"

// Conn is the subset of pgx operations repositories need; both *pgxpool.Pool
// and pgx.Tx satisfy it.
type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ConnFromContext returns the Conn stashed in ctx, or nil when the caller is
// not inside a transaction.
func ConnFromContext(ctx context.Context) Conn {
	if c, ok := ctx.Value(ConnKey).(Conn); ok {
		return c
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction is placed in the
// context handed to fn, so repository calls made through that context all
// share it. The transaction commits when fn returns nil and rolls back
// otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, ConnKey, Conn(tx))
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
