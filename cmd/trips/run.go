package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/davidchoysqldba/trips/internal/config"
	"github.com/davidchoysqldba/trips/internal/datasource/file"
	"github.com/davidchoysqldba/trips/internal/metrics"
	csvparser "github.com/davidchoysqldba/trips/internal/parser/csv"
	"github.com/davidchoysqldba/trips/internal/skiplog"
	"github.com/davidchoysqldba/trips/internal/storage"
	"github.com/davidchoysqldba/trips/internal/trip"
)

// resolvePipeline builds the run configuration: the pipeline file when
// -config is given (Default otherwise), then flag overrides, then the
// positional input path.
func resolvePipeline(f cliFlags, args []string) (config.Pipeline, error) {
	if len(args) > 1 {
		return config.Pipeline{}, fmt.Errorf("expected one input path, got %d arguments", len(args))
	}

	spec := config.Default("")
	if f.configPath != "" {
		var err error
		if spec, err = config.Load(f.configPath); err != nil {
			return config.Pipeline{}, err
		}
	}

	if len(args) == 1 {
		spec.Source.Kind = "file"
		spec.Source.File.Path = args[0]
	}
	if spec.Source.File.Path == "" {
		return config.Pipeline{}, errors.New("missing input path")
	}

	if f.storageKind != "" && f.storageKind != spec.Storage.Kind {
		spec.Storage.Kind = f.storageKind
		// The sqlite default file name is not a valid DSN for other kinds.
		if spec.Storage.DB.DSN == config.DefaultDSN {
			spec.Storage.DB.DSN = ""
		}
	}
	if f.dsn != "" {
		spec.Storage.DB.DSN = f.dsn
	}
	if f.rejectLog != "" {
		spec.RejectLog = f.rejectLog
	}
	if f.tz != "" {
		setValidateOption(&spec, "timezone", f.tz)
	}
	return spec, nil
}

// setValidateOption sets key on the first "validate" transform, adding one
// when the pipeline has none.
func setValidateOption(spec *config.Pipeline, key, value string) {
	for i := range spec.Transform {
		if spec.Transform[i].Kind != "validate" {
			continue
		}
		if spec.Transform[i].Options == nil {
			spec.Transform[i].Options = config.Options{}
		}
		spec.Transform[i].Options[key] = value
		return
	}
	spec.Transform = append(spec.Transform, config.Transform{
		Kind:    "validate",
		Options: config.Options{key: value},
	})
}

// loadLocation resolves the timezone option; "" and "Local" mean the host's
// local time.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

// summary is the outcome of one run. Invariant:
//
//	processed == accepted + sum(rejected)
//	accepted  == inserted + insert_failed
type summary struct {
	Source       file.Fingerprint
	Processed    int64
	ParseErrors  int64
	Rejected     map[trip.Reason]int64
	Inserted     int64
	InsertFailed int64
}

func (s summary) String() string {
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	var total int64
	for _, r := range reasons {
		n := s.Rejected[trip.Reason(r)]
		total += n
		parts = append(parts, fmt.Sprintf("%s:%d", r, n))
	}
	return fmt.Sprintf("summary: processed=%d parse_errors=%d rejected=%d rejected_by_reason={%s} inserted=%d insert_failed=%d",
		s.Processed, s.ParseErrors, total, strings.Join(parts, ","), s.Inserted, s.InsertFailed)
}

// run executes one load: Reader → Validator → Sink. Row-level problems are
// logged and counted; only setup and store failures return an error. When
// dump is non-nil the loaded table is printed to it after commit.
func run(ctx context.Context, spec config.Pipeline, logger *log.Logger, dump io.Writer) (summary, error) {
	var sum summary

	if spec.Source.Kind != "file" {
		return sum, fmt.Errorf("unsupported source.kind=%s", spec.Source.Kind)
	}
	vopts := spec.ValidateOptions()
	loc, err := loadLocation(vopts.String("timezone", ""))
	if err != nil {
		return sum, err
	}

	// 1) Source: fingerprint, then open and read the header.
	t0 := time.Now()
	src := file.NewLocal(spec.Source.File.Path)
	fp, err := src.Fingerprint(ctx)
	if err == nil {
		sum.Source = fp
		logger.Printf("source: path=%s %s", src.Path(), fp)
	}
	var rc io.ReadCloser
	if err == nil {
		rc, err = src.Open(ctx)
	}
	metrics.RecordStep(spec.Job, "open_source", err, time.Since(t0))
	if err != nil {
		return sum, fmt.Errorf("source: %w", err)
	}
	defer rc.Close()

	reader, err := csvparser.NewReader(rc, spec.Parser.Options,
		csvparser.WithErrorHandler(func(line int, err error) {
			sum.ParseErrors++
			logger.Printf("reader: skipped malformed record line=%d err=%v", line, err)
		}))
	if err != nil {
		return sum, fmt.Errorf("source %s: %w", src.Path(), err)
	}
	if missing := reader.MissingColumns(trip.ColumnNames()); len(missing) > 0 {
		logger.Printf("reader: header missing columns=%s", strings.Join(missing, ","))
	}

	// 2) Store: open, create the table, and render the purge for the load tx.
	t0 = time.Now()
	repo, err := storage.New(ctx, storage.Config{
		Kind:    spec.Storage.Kind,
		DSN:     spec.Storage.DB.DSN,
		Table:   spec.Storage.DB.Table,
		Columns: trip.ColumnNames(),
	})
	metrics.RecordStep(spec.Job, "open_store", err, time.Since(t0))
	if err != nil {
		return sum, fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	t0 = time.Now()
	err = storage.EnsureTable(ctx, spec, repo)
	metrics.RecordStep(spec.Job, "ensure_table", err, time.Since(t0))
	if err != nil {
		return sum, err
	}
	purge, err := storage.PurgeSQL(spec)
	if err != nil {
		return sum, err
	}

	// 3) Reject reporting: log always, journal when configured.
	reporters := trip.MultiReporter{trip.LogReporter{Logger: logger}}
	var journal *skiplog.Journal
	if spec.RejectLog != "" {
		if journal, err = skiplog.Create(spec.RejectLog); err != nil {
			return sum, err
		}
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Printf("skiplog: close %s: %v", spec.RejectLog, err)
			}
		}()
		reporters = append(reporters, journal)
	}

	validator := trip.NewValidator(
		trip.WithLocation(loc),
		trip.WithTimestampLayout(vopts.String("timestamp_layout", trip.DefaultTimestampLayout)),
		trip.WithReporter(reporters),
	)
	stage := validator.Filter(reader)

	sinkOpts := []storage.SinkOption{storage.WithLogger(logger), storage.WithPurge(purge)}
	if journal != nil {
		sinkOpts = append(sinkOpts, storage.WithInsertErrorHandler(journal.InsertFailed))
	}

	// 4) Load.
	t0 = time.Now()
	st, err := storage.NewSink(repo, sinkOpts...).Load(ctx, stage)
	metrics.RecordStep(spec.Job, "load", err, time.Since(t0))

	counts := stage.Counts()
	sum.Processed = counts.Accepted + counts.RejectedTotal()
	sum.Rejected = counts.Rejected
	sum.Inserted = st.Inserted
	sum.InsertFailed = st.Failed
	recordSummary(spec.Job, sum)

	if err != nil {
		return sum, err
	}

	if dump != nil {
		if err := dumpTable(ctx, repo, dump); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func recordSummary(job string, s summary) {
	metrics.RecordRow(job, "processed", s.Processed)
	metrics.RecordRow(job, "parse_errors", s.ParseErrors)
	metrics.RecordRow(job, "inserted", s.Inserted)
	metrics.RecordRow(job, "insert_failed", s.InsertFailed)
	var rejected int64
	for reason, n := range s.Rejected {
		rejected += n
		metrics.RecordRejects(job, string(reason), n)
	}
	metrics.RecordRow(job, "rejected", rejected)
}
