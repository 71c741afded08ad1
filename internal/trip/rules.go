package trip

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultTimestampLayout accepts both zero-padded ("06/01/2021 08:00") and
// unpadded ("6/1/2021 8:00") month, day and hour.
const DefaultTimestampLayout = "1/2/2006 15:04"

// Reason classifies why a row was rejected.
type Reason string

const (
	ReasonInvalidTimestamp Reason = "invalid_timestamp"
	ReasonInvalidNumeric   Reason = "invalid_numeric_field"
	// ReasonInsertFailed is used by the loader when the store refuses a row.
	ReasonInsertFailed Reason = "insert_failed"
)

// RejectError describes a row dropped by the Validator.
type RejectError struct {
	Line   int
	Reason Reason
	Field  string
	// Value is the offending raw value; Missing is set when the field was
	// absent from the row altogether.
	Value   string
	Missing bool
}

func (e *RejectError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: field %s missing", e.Reason, e.Field)
	}
	return fmt.Sprintf("%s: field %s value %q", e.Reason, e.Field, e.Value)
}

// rule converts one raw field value. ok=false means "no value".
type rule struct {
	field  string
	reason Reason
	conv   func(s string) (any, bool)
}

// buildRules derives the ordered rule table from Columns: every timestamp
// column first, then every integer column, each group in table order.
func buildRules(layout string, loc *time.Location) []rule {
	var ts, ints []rule
	for _, c := range Columns {
		switch c.Kind {
		case KindTimestamp:
			ts = append(ts, rule{
				field:  c.Name,
				reason: ReasonInvalidTimestamp,
				conv: func(s string) (any, bool) {
					v, ok := ParseTimestamp(s, layout, loc)
					return v, ok
				},
			})
		case KindInt:
			ints = append(ints, rule{
				field:  c.Name,
				reason: ReasonInvalidNumeric,
				conv: func(s string) (any, bool) {
					v, ok := ParseDigits(s)
					return v, ok
				},
			})
		case KindText:
		default:
			panic(fmt.Sprintf("trip: column %s has unknown kind %d", c.Name, c.Kind))
		}
	}
	return append(ts, ints...)
}

// ParseTimestamp parses s with layout in loc and returns POSIX seconds.
func ParseTimestamp(s, layout string, loc *time.Location) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}

// ParseDigits accepts only a non-empty run of ASCII decimal digits that fits
// in an int64. Signs, spaces and decimal points are rejected, so "12.0" fails
// even though it is numeric.
func ParseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
