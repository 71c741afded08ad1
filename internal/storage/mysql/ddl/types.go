// Package ddl contains the MySQL dialect for the trips table.
package ddl

import (
	"strings"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
)

// MapType maps a logical storage type into a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint", "epoch":
		return "BIGINT"
	default:
		return "TEXT"
	}
}

// Dialect renders MySQL DDL and DML with backtick quoting and ? placeholders.
var Dialect = gddl.Dialect{
	Name:        "mysql ddl",
	QuoteIdent:  quoteIdent,
	MapType:     MapType,
	Placeholder: func(int) string { return "?" },
	CreateIfAbsent: func(quoted, body string) string {
		return "CREATE TABLE IF NOT EXISTS " + quoted + " (\n  " + body + "\n)"
	},
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
