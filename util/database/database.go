// Package database owns the pgx pool and the transactional unit of work.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the common read/write surface of *pgxpool.Pool and pgx.Tx.
// Repository methods take it explicitly so the caller decides whether a
// statement runs inside a transaction; there is no ambient handle.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DB struct{ Pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: p}, nil
}

func (d *DB) Close() { d.Pool.Close() }

// TxRunner is the unit-of-work primitive services depend on. Tests swap in a
// runner that invokes fn without a live transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error
}

// WithTx runs fn inside one transaction: commit on nil error, rollback on any
// error or panic. Nested calls are not supported; open exactly one transaction
// per logical operation and thread the handle down through fn.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx Querier) error) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
