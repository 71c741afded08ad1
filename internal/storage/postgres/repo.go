// Package postgres implements the storage backend on Postgres using pgx v5.
// Each row is inserted under its own savepoint so that a rejected row does not
// abort the surrounding load transaction.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
	"github.com/davidchoysqldba/trips/internal/storage"
	pgddl "github.com/davidchoysqldba/trips/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string   // connection string for pgxpool
	Table   string   // optionally schema-qualified table, e.g. "public.trips"
	Columns []string // ordered insert columns
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool      *pgxpool.Pool
	cfg       Config
	insertSQL string
	selectSQL string
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	insert, err := gddl.BuildInsertSQL(pgddl.Dialect, cfg.Table, cfg.Columns)
	if err != nil {
		return nil, nil, err
	}
	sel, err := gddl.BuildSelectSQL(pgddl.Dialect, cfg.Table, cfg.Columns, cfg.Columns[0])
	if err != nil {
		return nil, nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	r := &Repository{pool: pool, cfg: cfg, insertSQL: insert, selectSQL: sel}
	return r, pool.Close, nil
}

// Exec runs stmt outside any load transaction.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Begin starts the load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	return &loadTx{tx: tx, insertSQL: r.insertSQL}, nil
}

// ScanAll implements storage.Scanner.
func (r *Repository) ScanAll(ctx context.Context, fn func(row []any) error) error {
	rows, err := r.pool.Query(ctx, r.selectSQL)
	if err != nil {
		return fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return fmt.Errorf("postgres: values: %w", err)
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: rows: %w", err)
	}
	return nil
}

// loadTx wraps a pgx.Tx. Postgres aborts the whole transaction on the first
// failed statement, so every insert runs inside a savepoint that is released
// on success and rolled back on failure.
type loadTx struct {
	tx        pgx.Tx
	insertSQL string
}

func (t *loadTx) Exec(ctx context.Context, stmt string) error {
	if _, err := t.tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

func (t *loadTx) Insert(ctx context.Context, row []any) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, t.insertSQL, row...); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("postgres: insert: %w (rollback to savepoint: %v)", err, rbErr)
		}
		return fmt.Errorf("postgres: insert: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: release savepoint: %w", err)
	}
	return nil
}

func (t *loadTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (t *loadTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}
