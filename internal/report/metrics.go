package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chatcheck/chatcheck/internal/suite"
)

var caseDurationBuckets = []float64{0.5, 1, 2, 5, 10, 15, 30, 60}

// Metrics writes a Prometheus textfile for node_exporter's textfile
// collector. Each run replaces the file.
type Metrics struct {
	Path string
}

func (m *Metrics) Report(run *suite.Run) error {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	casesTotal := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcheck_cases_total",
		Help: "Cases in the last run by status.",
	}, []string{"status"})
	caseDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatcheck_case_duration_seconds",
		Help:    "Time from sending a message to the verdict on its reply.",
		Buckets: caseDurationBuckets,
	}, []string{"status"})
	runDuration := factory.NewGauge(prometheus.GaugeOpts{
		Name: "chatcheck_run_duration_seconds",
		Help: "Wall time of the last run, login included.",
	})
	lastRun := factory.NewGauge(prometheus.GaugeOpts{
		Name: "chatcheck_last_run_timestamp_seconds",
		Help: "Unix time the last run started.",
	})
	runSuccess := factory.NewGauge(prometheus.GaugeOpts{
		Name: "chatcheck_last_run_success",
		Help: "1 if the last run passed, 0 otherwise.",
	})

	for status, n := range run.Counts() {
		casesTotal.WithLabelValues(string(status)).Add(float64(n))
	}
	for _, res := range run.Results {
		if res.Status == suite.StatusSkipped {
			continue
		}
		caseDuration.WithLabelValues(string(res.Status)).Observe(res.Duration.Seconds())
	}
	runDuration.Set(run.Duration.Seconds())
	lastRun.Set(float64(run.StartedAt.Unix()))
	if run.Passed() {
		runSuccess.Set(1)
	}

	if err := os.MkdirAll(filepath.Dir(m.Path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.Path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
