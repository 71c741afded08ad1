package ddl

import (
	"fmt"
	"strings"
)

// BuildInsertSQL renders a single-row INSERT for cols using the dialect's
// quoting and placeholders.
func BuildInsertSQL(d Dialect, fqn string, cols []string) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%s: insert needs at least one column", d.Name)
	}
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdent(c)
		params[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(d.QuoteIdent, fqn), strings.Join(names, ", "), strings.Join(params, ", ")), nil
}

// BuildSelectSQL renders a SELECT of cols ordered by orderBy.
func BuildSelectSQL(d Dialect, fqn string, cols []string, orderBy string) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%s: select needs at least one column", d.Name)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdent(c)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), QuoteFQN(d.QuoteIdent, fqn))
	if orderBy != "" {
		stmt += " ORDER BY " + d.QuoteIdent(orderBy)
	}
	return stmt, nil
}
