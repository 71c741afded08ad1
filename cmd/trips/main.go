// Command trips loads a bike-share trip export (CSV) into the trips table.
//
//	trips [flags] <input.csv>
//
// Every run replaces the table contents with the rows of the given file that
// pass validation. Rejected rows are logged (and optionally journaled to a CSV
// file); the process exits 0 as long as the run itself completed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/davidchoysqldba/trips/internal/config"

	// register all backends with the storage factory.
	_ "github.com/davidchoysqldba/trips/internal/storage/all"
)

// cliFlags holds the command-line overrides applied on top of the pipeline.
type cliFlags struct {
	configPath     string
	dsn            string
	storageKind    string
	tz             string
	rejectLog      string
	metricsBackend string
	pushGatewayURL string
	statsdAddr     string
	validate       bool
	verbose        bool
	dump           bool
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain parses args and runs the loader, returning the process exit code.
func realMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trips", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: trips [flags] <input.csv>\n\nflags:\n")
		fs.PrintDefaults()
	}

	var f cliFlags
	fs.StringVar(&f.configPath, "config", "", "optional pipeline config JSON path")
	fs.StringVar(&f.dsn, "db", "", "destination DSN (default "+config.DefaultDSN+" for sqlite)")
	fs.StringVar(&f.storageKind, "storage", "", "storage backend: sqlite, postgres, mssql, mysql (default sqlite)")
	fs.StringVar(&f.tz, "tz", "", `location used to interpret timestamps, e.g. "UTC" or "America/New_York" (default "Local")`)
	fs.StringVar(&f.rejectLog, "reject-log", "", "write every dropped row to this CSV file")
	fs.StringVar(&f.metricsBackend, "metrics-backend", "none", "metrics backend: none, pushgateway, datadog")
	fs.StringVar(&f.pushGatewayURL, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL")
	fs.StringVar(&f.statsdAddr, "statsd-addr", "127.0.0.1:8125", "DogStatsD address")
	fs.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&f.verbose, "v", false, "enable verbose logs")
	fs.BoolVar(&f.dump, "dump", false, "print the loaded table after commit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	runID := uuid.NewString()
	logger := log.New(stderr, "run="+runID+" ", log.LstdFlags|log.Lmsgprefix)

	spec, err := resolvePipeline(f, fs.Args())
	if err != nil {
		logger.Printf("config: %v", err)
		fs.Usage()
		return 1
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(spec)
	for _, iss := range issues {
		logger.Printf("config: %s", iss)
	}
	if config.HasErrors(issues) {
		logger.Printf("config: invalid pipeline")
		return 1
	}
	if f.validate {
		logger.Printf("config: valid")
		return 0
	}

	flush := setupMetrics(f, spec.Job, runID, logger)
	defer flush()

	if f.verbose {
		logger.Printf("pipeline: source=%s parser=%s storage=%s table=%s",
			spec.Source.File.Path, spec.Parser.Kind, spec.Storage.Kind, spec.Storage.DB.Table)
	}

	var dumpTo io.Writer
	if f.dump {
		dumpTo = stdout
	}

	start := time.Now()
	sum, err := run(context.Background(), spec, logger, dumpTo)
	if err != nil {
		logger.Printf("run failed: %v", err)
		return 1
	}
	logger.Printf("%s elapsed=%s", sum, time.Since(start).Truncate(time.Millisecond))
	return 0
}
