package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLDB implements Repository and Scanner over a database/sql handle. The
// sqlite, mssql and mysql backends embed it and supply statements rendered in
// their own dialect.
type SQLDB struct {
	DB        *sql.DB
	Name      string // error prefix, e.g. "sqlite"
	InsertSQL string
	SelectSQL string
}

// Exec runs stmt in autocommit mode. Blank statements are ignored.
func (r *SQLDB) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", r.Name, err)
	}
	return nil
}

// Begin opens a transaction and prepares the insert statement in it.
func (r *SQLDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", r.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, r.InsertSQL)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: prepare insert: %w", r.Name, err)
	}
	return &sqlTx{name: r.Name, tx: tx, insert: stmt}, nil
}

// ScanAll implements Scanner.
func (r *SQLDB) ScanAll(ctx context.Context, fn func(row []any) error) error {
	rows, err := r.DB.QueryContext(ctx, r.SelectSQL)
	if err != nil {
		return fmt.Errorf("%s: query: %w", r.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%s: columns: %w", r.Name, err)
	}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("%s: scan: %w", r.Name, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: rows: %w", r.Name, err)
	}
	return nil
}

// Close closes the handle.
func (r *SQLDB) Close() { _ = r.DB.Close() }

// sqlTx relies on statement-level failure: a rejected INSERT is rolled back
// by the engine on its own and the transaction stays open.
type sqlTx struct {
	name   string
	tx     *sql.Tx
	insert *sql.Stmt
}

func (t *sqlTx) Exec(ctx context.Context, stmt string) error {
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", t.name, err)
	}
	return nil
}

func (t *sqlTx) Insert(ctx context.Context, row []any) error {
	if _, err := t.insert.ExecContext(ctx, row...); err != nil {
		return fmt.Errorf("%s: insert: %w", t.name, err)
	}
	return nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	_ = t.insert.Close()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.name, err)
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	_ = t.insert.Close()
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("%s: rollback: %w", t.name, err)
	}
	return nil
}
