// Package ddl contains the Postgres dialect for the trips table.
package ddl

import (
	"strconv"
	"strings"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
)

// MapType normalizes a logical storage type into a Postgres SQL type.
//
//	"int"/"integer"/"bigint" -> BIGINT
//	"epoch"                  -> BIGINT (POSIX seconds)
//	everything else          -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint", "epoch":
		return "BIGINT"
	default:
		return "TEXT"
	}
}

// Dialect renders Postgres DDL and DML with "ident" quoting and $n
// placeholders.
var Dialect = gddl.Dialect{
	Name:        "postgres ddl",
	QuoteIdent:  quoteIdent,
	MapType:     MapType,
	Placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
	CreateIfAbsent: func(quoted, body string) string {
		return "CREATE TABLE IF NOT EXISTS " + quoted + " (\n  " + body + "\n);"
	},
}

// quoteIdent quotes a single identifier segment, doubling embedded quotes.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
