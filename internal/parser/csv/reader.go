// Package csv reads delimited trip files into raw rows.
//
// Reader pulls one record at a time from the underlying stream; nothing beyond
// the current record is buffered, so memory stays flat regardless of file
// size.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/davidchoysqldba/trips/internal/config"
	"github.com/davidchoysqldba/trips/internal/trip"
)

// Reader produces trip.Raw rows keyed by header-declared column names. It
// implements trip.RawSource.
//
// Options (all optional):
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default false) trims cell values; header names are
//     always trimmed
//   - lazy_quotes (bool; default false) → csv.Reader.LazyQuotes
//   - header_map (object) maps source header names to canonical names
//
// Without header_map, header names are lower-cased and spaces become
// underscores, so "Trip ID" and "trip_id" resolve to the same column.
type Reader struct {
	cr     *csv.Reader
	header []string
	trim   bool
	onErr  func(line int, err error)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithErrorHandler installs a callback for recoverable record errors
// (malformed quoting and the like). Such records are skipped.
func WithErrorHandler(fn func(line int, err error)) ReaderOption {
	return func(r *Reader) { r.onErr = fn }
}

// NewReader wraps src and reads the header line. A UTF-8 byte-order mark is
// stripped and UTF-16 input with a BOM is decoded to UTF-8.
//
// An empty stream yields an error; a header-only stream yields a Reader whose
// first Next returns io.EOF.
func NewReader(src io.Reader, opt config.Options, opts ...ReaderOption) (*Reader, error) {
	dec := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1 // width is not enforced; short rows just lack keys
	cr.ReuseRecord = true

	r := &Reader{cr: cr, trim: opt.Bool("trim_space", false)}
	for _, o := range opts {
		o(r)
	}

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: read header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	r.header = normalizeHeader(hdr, opt.StringMap("header_map"))
	return r, nil
}

// Header returns the canonical column names read from the header line.
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// MissingColumns reports which of the required names are not declared by the
// header, in the order given.
func (r *Reader) MissingColumns(required []string) []string {
	have := make(map[string]bool, len(r.header))
	for _, h := range r.header {
		have[h] = true
	}
	var out []string
	for _, name := range required {
		if !have[name] {
			out = append(out, name)
		}
	}
	return out
}

// Next returns the next data row, or io.EOF at end of input. Malformed
// records are reported to the error handler and skipped; any other read error
// is returned.
func (r *Reader) Next() (trip.Raw, error) {
	for {
		rec, err := r.cr.Read()
		if err == io.EOF {
			return trip.Raw{}, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if r.onErr != nil {
					r.onErr(pe.StartLine, err)
				}
				continue
			}
			return trip.Raw{}, fmt.Errorf("csv: read: %w", err)
		}

		line, _ := r.cr.FieldPos(0)
		fields := make(map[string]string, len(r.header))
		for i, name := range r.header {
			if i >= len(rec) {
				break
			}
			v := rec[i]
			if r.trim {
				v = strings.TrimSpace(v)
			}
			fields[name] = v
		}
		return trip.Raw{Line: line, Fields: fields}, nil
	}
}

func normalizeHeader(hdr []string, headerMap map[string]string) []string {
	out := make([]string, len(hdr))
	for i, h := range hdr {
		h = norm.NFC.String(strings.TrimSpace(h))
		if mapped, ok := headerMap[h]; ok {
			out[i] = mapped
			continue
		}
		out[i] = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}
	return out
}
