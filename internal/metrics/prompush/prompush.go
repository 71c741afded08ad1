// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A loader run is a short-lived batch process, so instead of exposing a scrape
// endpoint the collected registry is pushed once at the end of the run. Each
// push is grouped by job and run id.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/davidchoysqldba/trips/internal/metrics"
)

// Config configures the Pushgateway backend.
type Config struct {
	GatewayURL string // e.g. http://pushgateway:9091
	Job        string // Pushgateway "job" group; defaults to "trips_etl"
	RunID      string // optional "run_id" grouping label
}

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	cfg Config
	reg *prometheus.Registry

	stepCounter   *prometheus.CounterVec // trips_step_total
	stepDuration  *prometheus.SummaryVec // trips_step_duration_seconds
	rowCounter    *prometheus.CounterVec // trips_rows_total
	rejectCounter *prometheus.CounterVec // trips_rejects_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if cfg.Job == "" {
		cfg.Job = "trips_etl"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key, so it is not repeated as a label.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Run step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of run steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per kind (processed, parse_errors, rejected, inserted, insert_failed).",
		},
		[]string{"kind"},
	)
	rejectCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RejectsTotal,
			Help: "Rows dropped by validation, per reason.",
		},
		[]string{"reason"},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":   stepCounter,
		"step summary":   stepDuration,
		"row counter":    rowCounter,
		"reject counter": rejectCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		cfg:           cfg,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		rowCounter:    rowCounter,
		rejectCounter: rejectCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.RejectsTotal:
		if b.rejectCounter == nil {
			return
		}
		b.rejectCounter.WithLabelValues(labels["reason"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push of the same group.
func (b *Backend) Flush() error {
	p := push.New(b.cfg.GatewayURL, b.cfg.Job).Gatherer(b.reg)
	if b.cfg.RunID != "" {
		p = p.Grouping("run_id", b.cfg.RunID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
