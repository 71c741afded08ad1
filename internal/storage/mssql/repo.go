// Package mssql implements the storage backend on Microsoft SQL Server using
// go-mssqldb through database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
	"github.com/davidchoysqldba/trips/internal/storage"
	msddl "github.com/davidchoysqldba/trips/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN     string
	Table   string
	Columns []string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
// SQL Server leaves the transaction open after a failed INSERT (XACT_ABORT
// is off by default), so rows are isolated without savepoints.
type Repository struct {
	storage.SQLDB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	insert, err := gddl.BuildInsertSQL(msddl.Dialect, cfg.Table, cfg.Columns)
	if err != nil {
		return nil, nil, err
	}
	sel, err := gddl.BuildSelectSQL(msddl.Dialect, cfg.Table, cfg.Columns, cfg.Columns[0])
	if err != nil {
		return nil, nil, err
	}

	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql: ping: %w", err)
	}
	r := &Repository{
		SQLDB: storage.SQLDB{DB: db, Name: "mssql", InsertSQL: insert, SelectSQL: sel},
		cfg:   cfg,
	}
	return r, func() { _ = db.Close() }, nil
}
