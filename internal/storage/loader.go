package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/davidchoysqldba/trips/internal/trip"
)

// LoadStats summarizes one Load call.
type LoadStats struct {
	Inserted int64
	Failed   int64
	Elapsed  time.Duration
}

// Sink writes validated trips into a Repository inside one transaction.
type Sink struct {
	repo        Repository
	logger      *log.Logger
	purge       string
	onInsertErr func(row trip.Typed, err error)
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithLogger sets the logger used for per-row insert failures and the final
// load line. A nil logger discards output.
func WithLogger(l *log.Logger) SinkOption {
	return func(s *Sink) { s.logger = l }
}

// WithPurge runs stmt as the first statement of the load transaction.
func WithPurge(stmt string) SinkOption {
	return func(s *Sink) { s.purge = stmt }
}

// WithInsertErrorHandler registers fn to be called for every row whose insert
// failed, after the failure was logged.
func WithInsertErrorHandler(fn func(row trip.Typed, err error)) SinkOption {
	return func(s *Sink) { s.onInsertErr = fn }
}

// NewSink returns a Sink writing to repo.
func NewSink(repo Repository, opts ...SinkOption) *Sink {
	s := &Sink{repo: repo, logger: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// Load drains src into the table. Each row is inserted positionally in
// trip.Columns order; a failed insert is logged and skipped and never stops
// the load. After src is exhausted the transaction is committed once.
//
// An error from src other than io.EOF rolls the transaction back and is
// returned, as is a failure to begin, purge or commit.
func (s *Sink) Load(ctx context.Context, src trip.TypedSource) (LoadStats, error) {
	var st LoadStats
	start := time.Now()

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return st, fmt.Errorf("loader: begin: %w", err)
	}
	fail := func(err error) (LoadStats, error) {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Printf("loader: rollback failed err=%v", rbErr)
		}
		st.Elapsed = time.Since(start)
		return st, err
	}

	if s.purge != "" {
		if err := tx.Exec(ctx, s.purge); err != nil {
			return fail(fmt.Errorf("loader: purge: %w", err))
		}
	}

	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("loader: read: %w", err))
		}

		if err := tx.Insert(ctx, row.Values()); err != nil {
			st.Failed++
			s.logger.Printf("loader: insert failed line=%d trip_id=%d err=%v", row.Line, row.TripID(), err)
			if s.onInsertErr != nil {
				s.onInsertErr(row, err)
			}
			continue
		}
		st.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		st.Elapsed = time.Since(start)
		return st, fmt.Errorf("loader: commit: %w", err)
	}
	st.Elapsed = time.Since(start)
	s.logger.Printf("loader: committed inserted=%d insert_failed=%d elapsed=%s",
		st.Inserted, st.Failed, st.Elapsed.Truncate(time.Millisecond))
	return st, nil
}
