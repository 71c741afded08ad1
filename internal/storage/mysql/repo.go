// Package mysql implements the storage backend on MySQL/MariaDB using
// go-sql-driver/mysql through database/sql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
	"github.com/davidchoysqldba/trips/internal/storage"
	myddl "github.com/davidchoysqldba/trips/internal/storage/mysql/ddl"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN     string // e.g. "user:pass@tcp(localhost:3306)/trips"
	Table   string
	Columns []string
}

// Repository is a MySQL-backed implementation of storage.Repository. InnoDB
// rolls back only the failing statement on a duplicate key, so the load
// transaction survives rejected rows.
type Repository struct {
	storage.SQLDB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	insert, err := gddl.BuildInsertSQL(myddl.Dialect, cfg.Table, cfg.Columns)
	if err != nil {
		return nil, nil, err
	}
	sel, err := gddl.BuildSelectSQL(myddl.Dialect, cfg.Table, cfg.Columns, cfg.Columns[0])
	if err != nil {
		return nil, nil, err
	}

	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	r := &Repository{
		SQLDB: storage.SQLDB{DB: db, Name: "mysql", InsertSQL: insert, SelectSQL: sel},
		cfg:   cfg,
	}
	return r, func() { _ = db.Close() }, nil
}
