// Package ddl contains the SQL Server dialect for the trips table.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so the create statement is wrapped
// in an IF OBJECT_ID(...) IS NULL guard.
package ddl

import (
	"strconv"
	"strings"

	gddl "github.com/davidchoysqldba/trips/internal/ddl"
)

// MapType maps a logical storage type into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint", "epoch":
		return "BIGINT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// Dialect renders T-SQL:
//
//	IF OBJECT_ID(N'[dbo].[trips]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[trips] ( ... );
//	END;
var Dialect = gddl.Dialect{
	Name:        "mssql ddl",
	QuoteIdent:  quoteIdent,
	MapType:     MapType,
	Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
	CreateIfAbsent: func(quoted, body string) string {
		return "IF OBJECT_ID(N'" + strings.ReplaceAll(quoted, "'", "''") + "', N'U') IS NULL\nBEGIN\n  CREATE TABLE " +
			quoted + " (\n    " + strings.ReplaceAll(body, "\n  ", "\n    ") + "\n  );\nEND;"
	},
}

// quoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
