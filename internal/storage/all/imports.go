// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL dialects with the storage
// package. The available kinds are "sqlite", "postgres", "mssql" and "mysql".
//
// A binary that needs only a subset of backends can import the backend
// packages directly instead.
package all

import (
	_ "github.com/davidchoysqldba/trips/internal/storage/mssql"
	_ "github.com/davidchoysqldba/trips/internal/storage/mysql"
	_ "github.com/davidchoysqldba/trips/internal/storage/postgres"
	_ "github.com/davidchoysqldba/trips/internal/storage/sqlite"
)
