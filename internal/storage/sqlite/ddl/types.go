// Package ddl holds the SQLite dialect used to render the trips table
// statements.
package ddl

import (
	"strings"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
)

// MapType maps a logical storage type into a SQLite column type.
//
// SQLite supports dynamic typing, so this mapping prefers canonical affinities:
//   - int   -> INTEGER
//   - epoch -> TEXT (the loaded table keeps timestamps in a text column; the
//     engine stores the POSIX seconds as their decimal text)
//   - other -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// Dialect renders SQLite DDL and DML:
//
//	CREATE TABLE IF NOT EXISTS "trips" ( "trip_id" INTEGER NOT NULL, ... )
//	INSERT INTO "trips" (...) VALUES (?, ?, ...)
var Dialect = gddl.Dialect{
	Name:        "sqlite ddl",
	QuoteIdent:  quoteIdent,
	MapType:     MapType,
	Placeholder: func(int) string { return "?" },
	CreateIfAbsent: func(quoted, body string) string {
		return "CREATE TABLE IF NOT EXISTS " + quoted + " (\n  " + body + "\n);"
	},
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
