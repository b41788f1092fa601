// Package metrics records helper operation metrics for Prometheus.
//
// The helper is a one-shot process, so it cannot serve a /metrics
// endpoint. Instead each invocation writes a textfile for the node
// exporter's textfile collector. Values are gauges describing the last
// completed operation; the collector's scrape timestamps give the
// series its history.
package metrics

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects metrics for one helper invocation. A nil Recorder
// is valid and records nothing, so metrics can be disabled with zero
// overhead.
type Recorder struct {
	dir      string
	registry *prometheus.Registry

	lastOperation *prometheus.GaugeVec
	lastDuration  *prometheus.GaugeVec
}

// NewRecorder creates a Recorder that writes to dir.
func NewRecorder(dir string) *Recorder {
	registry := prometheus.NewRegistry()

	lastOperation := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "starbind_last_operation_timestamp_seconds",
		Help: "Unix time of the last completed starbind operation.",
	}, []string{"operation", "outcome"})

	lastDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "starbind_last_operation_duration_seconds",
		Help: "Duration of the last completed starbind operation.",
	}, []string{"operation", "outcome"})

	registry.MustRegister(lastOperation, lastDuration)

	return &Recorder{
		dir:           dir,
		registry:      registry,
		lastOperation: lastOperation,
		lastDuration:  lastDuration,
	}
}

// RecordOperation records the outcome ("success" or "failure") and
// duration of one operation ("mount" or "unmount").
func (r *Recorder) RecordOperation(operation, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	labels := prometheus.Labels{"operation": operation, "outcome": outcome}
	r.lastOperation.With(labels).SetToCurrentTime()
	r.lastDuration.With(labels).Set(duration.Seconds())
}

// Write writes the collected metrics to <dir>/starbind.prom. The
// prometheus textfile writer replaces the file atomically, so a scrape
// never sees a partial write.
func (r *Recorder) Write() error {
	if r == nil {
		return nil
	}
	path := filepath.Join(r.dir, "starbind.prom")
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
