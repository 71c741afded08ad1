package trip

import (
	"fmt"
	"io"
)

// Raw is one input record as produced by the source reader: header-declared
// column names mapped to the raw string values of a single data line.
type Raw struct {
	// Line is the 1-based record number in the source (the header is line 1).
	Line   int
	Fields map[string]string
}

// Typed is a fully validated row. Governed fields hold int64 values, every
// other field holds the raw string unchanged.
type Typed struct {
	Line   int
	Fields map[string]any
}

// Values returns the row's values positionally in Columns order, ready to be
// bound to an INSERT. Absent columns bind as NULL. Pass-through strings bind
// unchanged, except that an empty string in an integer-stored column binds as
// NULL.
func (t Typed) Values() []any {
	out := make([]any, len(Columns))
	for i, c := range Columns {
		v, ok := t.Fields[c.Name]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" && c.Store == "int" {
			continue
		}
		out[i] = v
	}
	return out
}

// TripID returns the converted trip_id, or 0 if the row has none.
func (t Typed) TripID() int64 {
	id, _ := t.Fields["trip_id"].(int64)
	return id
}

func (t Typed) String() string {
	return fmt.Sprintf("line=%d trip_id=%d", t.Line, t.TripID())
}

// RawSource is a lazy, single-pass sequence of raw rows. Next returns io.EOF
// once the sequence is exhausted; any other error is a run-level failure.
type RawSource interface {
	Next() (Raw, error)
}

// TypedSource is a lazy, single-pass sequence of validated rows with the same
// io.EOF contract as RawSource.
type TypedSource interface {
	Next() (Typed, error)
}

// SliceSource serves raw rows from memory. It is mostly useful in tests and
// for small, pre-materialized inputs.
type SliceSource struct {
	rows []Raw
	pos  int
}

// NewSliceSource returns a RawSource over rows.
func NewSliceSource(rows ...Raw) *SliceSource { return &SliceSource{rows: rows} }

// Next implements RawSource.
func (s *SliceSource) Next() (Raw, error) {
	if s.pos >= len(s.rows) {
		return Raw{}, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}
