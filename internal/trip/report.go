package trip

import (
	"log"
	"sort"
	"strings"
)

// Reporter is notified of every rejected row. Implementations must not panic;
// a report never stops the pipeline.
type Reporter interface {
	Reject(raw Raw, err *RejectError)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(raw Raw, err *RejectError)

// Reject implements Reporter.
func (f ReporterFunc) Reject(raw Raw, err *RejectError) { f(raw, err) }

type nopReporter struct{}

func (nopReporter) Reject(Raw, *RejectError) {}

// LogReporter writes one line per rejected row to a *log.Logger.
type LogReporter struct {
	Logger *log.Logger
}

// Reject implements Reporter.
func (l LogReporter) Reject(raw Raw, err *RejectError) {
	if l.Logger == nil {
		return
	}
	value := err.Value
	if err.Missing {
		value = "<missing>"
	}
	l.Logger.Printf("validate: rejected line=%d reason=%s field=%s value=%q row={%s}",
		raw.Line, err.Reason, err.Field, value, FormatRaw(raw))
}

// MultiReporter fans a rejection out to several reporters in order.
type MultiReporter []Reporter

// Reject implements Reporter.
func (m MultiReporter) Reject(raw Raw, err *RejectError) {
	for _, r := range m {
		if r != nil {
			r.Reject(raw, err)
		}
	}
}

// FormatRaw renders a raw row as "k=v" pairs: known columns in table order,
// then any extra header columns sorted by name.
func FormatRaw(raw Raw) string {
	parts := make([]string, 0, len(raw.Fields))
	seen := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		seen[c.Name] = true
		if v, ok := raw.Fields[c.Name]; ok {
			parts = append(parts, c.Name+"="+v)
		}
	}
	var extra []string
	for k := range raw.Fields {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, k+"="+raw.Fields[k])
	}
	return strings.Join(parts, " ")
}
