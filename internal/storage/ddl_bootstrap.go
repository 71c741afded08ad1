package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/davidchoysqldba/trips/internal/config"
	"github.com/davidchoysqldba/trips/internal/ddl"
)

var (
	ddlMu       sync.RWMutex
	ddlDialects = map[string]ddl.Dialect{}
)

// RegisterDDL registers (or replaces) the DDL dialect for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlDialects[kind] = d
}

func dialectFor(kind string) (ddl.Dialect, error) {
	ddlMu.RLock()
	d, ok := ddlDialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return ddl.Dialect{}, fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return d, nil
}

// EnsureTable creates the trips table named in the pipeline when it does not
// exist yet. Callers do not need to know which backend they are using; they
// pass the pipeline and the already-open Repository.
func EnsureTable(ctx context.Context, spec config.Pipeline, repo Repository) error {
	d, err := dialectFor(spec.Storage.Kind)
	if err != nil {
		return err
	}
	stmt, err := ddl.BuildCreateTableSQL(d, ddl.TripsTable(spec.Storage.DB.Table, d.MapType))
	if err != nil {
		return fmt.Errorf("build create table: %w", err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Storage.DB.Table, err)
	}
	return nil
}

// PurgeSQL renders the statement that empties the destination table at the
// start of a run.
func PurgeSQL(spec config.Pipeline) (string, error) {
	d, err := dialectFor(spec.Storage.Kind)
	if err != nil {
		return "", err
	}
	return ddl.BuildPurgeSQL(d, spec.Storage.DB.Table)
}
