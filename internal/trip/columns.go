// Package trip holds the bike-share trip domain: the fixed column table of the
// trips relation, raw and typed rows, the per-field conversion rules, and the
// row Validator that turns one into the other.
package trip

// Kind selects the conversion rule applied to a column by the Validator.
type Kind uint8

const (
	// KindText columns pass through as the raw string, unvalidated.
	KindText Kind = iota
	// KindInt columns must be digits only and convert to int64.
	KindInt
	// KindTimestamp columns are parsed with the timestamp layout and convert
	// to POSIX seconds (int64).
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindTimestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// Column describes one column of the trips relation.
//
// Store is the logical storage type used by the DDL builders ("int", "text",
// "epoch"). It is independent of Kind: start_station is stored as an integer
// column but passes through the Validator unconverted.
type Column struct {
	Name       string
	Kind       Kind
	Store      string
	PrimaryKey bool
}

// Table is the default destination table name.
const Table = "trips"

// Columns is the fixed column order of the trips table. Inserts bind values
// positionally in this order.
var Columns = []Column{
	{Name: "trip_id", Kind: KindInt, Store: "int", PrimaryKey: true},
	{Name: "duration", Kind: KindInt, Store: "int"},
	{Name: "start_time", Kind: KindTimestamp, Store: "epoch"},
	{Name: "end_time", Kind: KindTimestamp, Store: "epoch"},
	{Name: "start_station", Kind: KindText, Store: "int"},
	{Name: "start_lat", Kind: KindText, Store: "text"},
	{Name: "start_lon", Kind: KindText, Store: "text"},
	{Name: "end_station", Kind: KindText, Store: "text"},
	{Name: "end_lat", Kind: KindText, Store: "text"},
	{Name: "end_lon", Kind: KindText, Store: "text"},
	{Name: "bike_id", Kind: KindInt, Store: "int"},
	{Name: "plan_duration", Kind: KindInt, Store: "int"},
	{Name: "trip_route_category", Kind: KindText, Store: "text"},
	{Name: "passholder_type", Kind: KindText, Store: "text"},
	{Name: "bike_type", Kind: KindText, Store: "text"},
}

// ColumnNames returns the column names in table order.
func ColumnNames() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Name
	}
	return out
}

// Governed returns the names of the columns that carry a conversion rule,
// in table order.
func Governed() []string {
	var out []string
	for _, c := range Columns {
		if c.Kind != KindText {
			out = append(out, c.Name)
		}
	}
	return out
}
