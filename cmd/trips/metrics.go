package main

import (
	"log"

	"github.com/davidchoysqldba/trips/internal/metrics"
	"github.com/davidchoysqldba/trips/internal/metrics/datadog"
	"github.com/davidchoysqldba/trips/internal/metrics/prompush"
)

// setupMetrics installs the backend named by -metrics-backend and returns the
// function that flushes it at the end of the run. A backend that cannot be
// created leaves metrics disabled; it never fails the run.
func setupMetrics(f cliFlags, job, runID string, logger *log.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch f.metricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(prompush.Config{GatewayURL: f.pushGatewayURL, Job: job, RunID: runID})
		if err == nil {
			logger.Printf("metrics: backend=pushgateway url=%s job=%s", f.pushGatewayURL, job)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       f.statsdAddr,
			Namespace:  "trips.",
			GlobalTags: []string{"job:" + job, "run_id:" + runID},
		})
		if err == nil {
			logger.Printf("metrics: backend=datadog addr=%s", f.statsdAddr)
		}
	case "", "none":
		if f.verbose {
			logger.Printf("metrics: disabled")
		}
		return func() {}
	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", f.metricsBackend)
		return func() {}
	}
	if err != nil {
		logger.Printf("metrics: %v; metrics disabled", err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
	}
}
