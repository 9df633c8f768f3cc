package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"deleteafter/internal/deferred"
)

// Recorder holds the metrics of one helper run on a private registry.
// The process is short-lived, so nothing is served over HTTP; the registry is
// flushed to a node_exporter textfile once the run has finished. Everything
// is a gauge describing the last run, since counters restart with every process.
type Recorder struct {
	registry *prometheus.Registry
	textfile string

	// LastRunStatus is 1 for the status/object of the last run, 0 for the other statuses
	LastRunStatus *prometheus.GaugeVec

	// LastRunTimestamp records when the last run finished (Unix epoch seconds)
	LastRunTimestamp prometheus.Gauge

	// LastRunDelaySeconds is the wait applied by the last run
	LastRunDelaySeconds prometheus.Gauge

	// LastRunDelayDefaulted is 1 when the delay argument could not be parsed
	LastRunDelayDefaulted prometheus.Gauge

	// LastRunDurationSeconds is wall time from start to finish, including the wait
	LastRunDurationSeconds prometheus.Gauge

	// LastRunBytesRemoved is the measured size of a deleted target
	LastRunBytesRemoved prometheus.Gauge
}

// New creates a Recorder. textfile may be empty, in which case Observe only
// updates the in-memory registry.
func New(textfile string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		textfile: textfile,

		LastRunStatus: NewGaugeVec(
			"deleteafter_last_run_status",
			"Outcome of the last deferred delete (1 for the matching status).",
			[]string{"status", "object"},
		),
		LastRunTimestamp: NewGauge(
			"deleteafter_last_run_timestamp_seconds",
			"Timestamp when the last deferred delete finished (Unix epoch seconds).",
		),
		LastRunDelaySeconds: NewGauge(
			"deleteafter_last_run_delay_seconds",
			"Delay applied before the last deferred delete.",
		),
		LastRunDelayDefaulted: NewGauge(
			"deleteafter_last_run_delay_defaulted",
			"1 if the last run fell back to the default delay.",
		),
		LastRunDurationSeconds: NewGauge(
			"deleteafter_last_run_duration_seconds",
			"Wall time of the last run including the wait.",
		),
		LastRunBytesRemoved: NewBytesGauge(
			"deleteafter_last_run_bytes_removed",
			"Bytes under the target removed by the last run.",
		),
	}

	r.registry.MustRegister(
		r.LastRunStatus,
		r.LastRunTimestamp,
		r.LastRunDelaySeconds,
		r.LastRunDelayDefaulted,
		r.LastRunDurationSeconds,
		r.LastRunBytesRemoved,
	)
	return r
}

// Registry exposes the private registry as a Gatherer
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe implements deferred.Observer
func (r *Recorder) Observe(res deferred.Result) error {
	r.LastRunStatus.Reset()
	for _, s := range deferred.Statuses {
		if s != res.Status {
			r.LastRunStatus.WithLabelValues(string(s), "").Set(0)
		}
	}
	r.LastRunStatus.WithLabelValues(string(res.Status), res.ObjectType).Set(1)

	r.LastRunTimestamp.Set(float64(res.FinishedAt.Unix()))
	r.LastRunDelaySeconds.Set(res.Delay.Seconds())
	r.LastRunDurationSeconds.Set(res.FinishedAt.Sub(res.StartedAt).Seconds())

	defaulted := 0.0
	if res.DelayDefaulted {
		defaulted = 1
	}
	r.LastRunDelayDefaulted.Set(defaulted)

	removed := 0.0
	if res.Status == deferred.StatusDeleted {
		removed = float64(res.Size)
	}
	r.LastRunBytesRemoved.Set(removed)

	if r.textfile == "" {
		return nil
	}
	return r.WriteTextfile()
}

// WriteTextfile writes the registry to the configured textfile atomically
func (r *Recorder) WriteTextfile() error {
	if r.textfile == "" {
		return fmt.Errorf("metrics textfile not configured")
	}
	if err := os.MkdirAll(filepath.Dir(r.textfile), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
