package ddl

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., INTEGER, TEXT, BIGINT)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name (optionally schema-qualified, "schema.table")
// and the ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures the per-database pieces of DDL rendering.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite ddl".
	Name string

	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(id string) string

	// MapType maps a logical storage type ("int", "text", "epoch") to a
	// column type.
	MapType func(kind string) string

	// Placeholder renders the bind parameter for the 1-based position i.
	Placeholder func(i int) string

	// CreateIfAbsent wraps a rendered column list into an idempotent
	// statement. quoted is the quoted table name, body the joined column
	// and constraint definitions.
	CreateIfAbsent func(quoted, body string) string
}
