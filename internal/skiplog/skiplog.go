// Package skiplog keeps a CSV journal of every row the pipeline dropped,
// whether the validator rejected it or the store refused the insert. The
// journal lets the source data be fixed and the run repeated.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/davidchoysqldba/trips/internal/trip"
)

// Header is the first record of every journal.
var Header = []string{"reason", "line_number", "field", "value", "raw_row"}

// Journal writes one CSV record per dropped row. It implements trip.Reporter.
type Journal struct {
	mu      sync.Mutex
	w       *csv.Writer
	c       io.Closer
	reasons map[string]int
	err     error
}

// New starts a journal on w. The header is written immediately.
func New(w io.Writer) *Journal {
	j := &Journal{w: csv.NewWriter(w), reasons: make(map[string]int)}
	j.write(Header)
	return j
}

// Create creates (or truncates) the journal file at path, creating parent
// directories as needed.
func Create(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: open %s: %w", path, err)
	}
	j := New(f)
	j.c = f
	return j, nil
}

// Reject implements trip.Reporter.
func (j *Journal) Reject(raw trip.Raw, err *trip.RejectError) {
	value := err.Value
	if err.Missing {
		value = ""
	}
	j.add(string(err.Reason), raw.Line, err.Field, value, trip.FormatRaw(raw))
}

// InsertFailed records a row the store refused.
func (j *Journal) InsertFailed(row trip.Typed, cause error) {
	j.add(string(trip.ReasonInsertFailed), row.Line, "trip_id", strconv.FormatInt(row.TripID(), 10), cause.Error())
}

// Counts returns the number of journaled rows per reason.
func (j *Journal) Counts() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string]int, len(j.reasons))
	for k, v := range j.reasons {
		out[k] = v
	}
	return out
}

// Close flushes buffered records and closes the file, if any. The first
// write error seen during the run is returned.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.w.Flush()
	if err := j.w.Error(); err != nil && j.err == nil {
		j.err = err
	}
	if j.c != nil {
		if err := j.c.Close(); err != nil && j.err == nil {
			j.err = err
		}
		j.c = nil
	}
	return j.err
}

func (j *Journal) add(reason string, line int, field, value, raw string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reasons[reason]++
	j.write([]string{reason, strconv.Itoa(line), field, value, raw})
}

func (j *Journal) write(rec []string) {
	if err := j.w.Write(rec); err != nil && j.err == nil {
		j.err = err
	}
}
