// Package sqlite implements the default storage backend on a local SQLite file
// through modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
	"github.com/davidchoysqldba/trips/internal/storage"
	sqliteddl "github.com/davidchoysqldba/trips/internal/storage/sqlite/ddl"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "trips.db"
	//   "file:trips.db?_pragma=busy_timeout(5000)"
	DSN string

	// Table is the destination table. Dotted names such as "main.trips" are
	// quoted per segment.
	Table string

	// Columns is the ordered list of insert columns.
	Columns []string
}

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	storage.SQLDB
	cfg Config
}

// NewRepository opens the database file and returns a Repository plus a Close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	insert, err := gddl.BuildInsertSQL(sqliteddl.Dialect, cfg.Table, cfg.Columns)
	if err != nil {
		return nil, nil, err
	}
	sel, err := gddl.BuildSelectSQL(sqliteddl.Dialect, cfg.Table, cfg.Columns, cfg.Columns[0])
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	r := &Repository{
		SQLDB: storage.SQLDB{DB: db, Name: "sqlite", InsertSQL: insert, SelectSQL: sel},
		cfg:   cfg,
	}
	return r, func() { db.Close() }, nil
}
