// Package ddl holds a small, backend-agnostic model for the destination
// table and renders it through per-database dialects.
//
// Backend packages (internal/storage/<kind>/ddl) supply a Dialect; this
// package owns the column list, the primary key clause, and identifier
// quoting of dotted names.
package ddl

import (
	"fmt"
	"strings"

	"github.com/davidchoysqldba/trips/internal/trip"
)

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t.
//
// Each column is rendered as:
//
//	<quoted name> <SQLType> [NOT NULL]
//
// Primary key columns are collected into a trailing PRIMARY KEY (...) clause.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.Name, name)
		}

		def := d.QuoteIdent(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return d.CreateIfAbsent(QuoteFQN(d.QuoteIdent, fqn), strings.Join(cols, ",\n  ")), nil
}

// BuildPurgeSQL renders the statement that empties the table before a run.
func BuildPurgeSQL(d Dialect, fqn string) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	return "DELETE FROM " + QuoteFQN(d.QuoteIdent, fqn), nil
}

// QuoteFQN quotes each dot-separated segment of fqn with quote, skipping
// empty segments.
func QuoteFQN(quote func(string) string, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// TripsTable builds the trips table definition from trip.Columns, mapping
// each column's logical storage type with mapType.
func TripsTable(fqn string, mapType func(string) string) TableDef {
	defs := make([]ColumnDef, 0, len(trip.Columns))
	for _, c := range trip.Columns {
		defs = append(defs, ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Store),
			Nullable:   !c.PrimaryKey,
			PrimaryKey: c.PrimaryKey,
		})
	}
	return TableDef{FQN: fqn, Columns: defs}
}
