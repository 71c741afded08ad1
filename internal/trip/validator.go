package trip

import (
	"errors"
	"time"
)

// Validator converts raw rows into typed rows. A row either converts in full
// or is rejected; no partially typed row is ever produced.
type Validator struct {
	layout   string
	loc      *time.Location
	reporter Reporter
	rules    []rule
}

// Option configures a Validator.
type Option func(*Validator)

// WithLocation sets the location timestamps are interpreted in. The same
// location is used for every conversion of a run.
func WithLocation(loc *time.Location) Option {
	return func(v *Validator) {
		if loc != nil {
			v.loc = loc
		}
	}
}

// WithTimestampLayout overrides DefaultTimestampLayout.
func WithTimestampLayout(layout string) Option {
	return func(v *Validator) {
		if layout != "" {
			v.layout = layout
		}
	}
}

// WithReporter installs the collaborator notified of every rejected row.
func WithReporter(r Reporter) Option {
	return func(v *Validator) { v.reporter = r }
}

// NewValidator returns a Validator using the local time zone and the default
// timestamp layout unless overridden.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		layout:   DefaultTimestampLayout,
		loc:      time.Local,
		reporter: nopReporter{},
	}
	for _, o := range opts {
		o(v)
	}
	if v.reporter == nil {
		v.reporter = nopReporter{}
	}
	v.rules = buildRules(v.layout, v.loc)
	return v
}

// Validate converts raw. On failure it returns a *RejectError naming the first
// field that failed; timestamp fields are checked before integer fields and
// checking stops at the first failure. raw.Fields is never modified.
func (v *Validator) Validate(raw Raw) (Typed, error) {
	fields := make(map[string]any, len(raw.Fields))
	for k, s := range raw.Fields {
		fields[k] = s
	}

	for _, r := range v.rules {
		s, ok := raw.Fields[r.field]
		if !ok {
			return Typed{}, &RejectError{Line: raw.Line, Reason: r.reason, Field: r.field, Missing: true}
		}
		val, ok := r.conv(s)
		if !ok {
			return Typed{}, &RejectError{Line: raw.Line, Reason: r.reason, Field: r.field, Value: s}
		}
		fields[r.field] = val
	}
	return Typed{Line: raw.Line, Fields: fields}, nil
}

// Counts tallies the outcome of a Filter stage.
type Counts struct {
	Accepted int64
	Rejected map[Reason]int64
}

// RejectedTotal sums rejections across reasons.
func (c Counts) RejectedTotal() int64 {
	var n int64
	for _, v := range c.Rejected {
		n += v
	}
	return n
}

// Stage is the lazy validation step between a RawSource and the loader.
type Stage struct {
	v      *Validator
	src    RawSource
	counts Counts
}

// Filter wraps src so that pulling from the result validates one raw row at a
// time. Rejected rows are reported and skipped; only typed rows come out.
func (v *Validator) Filter(src RawSource) *Stage {
	return &Stage{v: v, src: src, counts: Counts{Rejected: map[Reason]int64{}}}
}

// Next implements TypedSource.
func (s *Stage) Next() (Typed, error) {
	for {
		raw, err := s.src.Next()
		if err != nil {
			return Typed{}, err
		}
		t, err := s.v.Validate(raw)
		if err == nil {
			s.counts.Accepted++
			return t, nil
		}
		var rej *RejectError
		if !errors.As(err, &rej) {
			return Typed{}, err
		}
		s.counts.Rejected[rej.Reason]++
		s.v.reporter.Reject(raw, rej)
	}
}

// Counts returns a snapshot of the stage's tallies.
func (s *Stage) Counts() Counts {
	out := Counts{Accepted: s.counts.Accepted, Rejected: make(map[Reason]int64, len(s.counts.Rejected))}
	for k, v := range s.counts.Rejected {
		out.Rejected[k] = v
	}
	return out
}
