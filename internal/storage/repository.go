// Package storage holds the storage-agnostic contracts used by the loader:
// the Repository/Tx interfaces, a registry of backend factories keyed by
// storage kind, the DDL bootstrap that prepares the destination table, and the
// Sink that writes validated trips.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is an open connection to one destination table.
type Repository interface {
	// Exec runs a statement outside of any load transaction (DDL, purge).
	Exec(ctx context.Context, sql string) error

	// Begin opens the single transaction a load runs in.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the underlying connection or pool.
	Close()
}

// Tx is a load transaction. Insert failures are per row: a failed Insert
// leaves the transaction usable for the next row.
type Tx interface {
	// Exec runs a statement inside the transaction.
	Exec(ctx context.Context, sql string) error
	// Insert writes one row, positionally aligned to Config.Columns.
	Insert(ctx context.Context, row []any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Scanner is implemented by repositories that can read the table back.
type Scanner interface {
	// ScanAll calls fn for every row of the table in Config.Columns order,
	// sorted by the primary key.
	ScanAll(ctx context.Context, fn func(row []any) error) error
}

// Config is the backend-agnostic repository configuration.
type Config struct {
	Kind    string   // "sqlite", "postgres", "mssql", "mysql"
	DSN     string   // driver connection string or file path
	Table   string   // optionally schema-qualified destination table
	Columns []string // ordered insert columns
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
