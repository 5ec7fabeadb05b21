// Package metrics collects pipeline measurements in a Prometheus registry
// and writes them as a node exporter textfile.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
)

// Namespace prefixes every metric name.
const Namespace = "berth"

const (
	stageDurationSeconds = "stage_duration_seconds"
	stageRunsTotal       = "stage_runs_total"
	lockedPackages       = "locked_packages"
	imagePackages        = "image_packages"
)

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	stageDuration  *prometheus.HistogramVec
	stageRuns      *prometheus.CounterVec
	lockedPackages prometheus.Gauge
	imagePackages  prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      stageDurationSeconds,
				Help:      "How long each pipeline stage took, in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			}, []string{"stage"}),
		stageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      stageRunsTotal,
				Help:      "How many times each pipeline stage ran, by outcome.",
			}, []string{"stage", "outcome"}),
		lockedPackages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      lockedPackages,
				Help:      "How many packages the latest lock pins.",
			}),
		imagePackages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      imagePackages,
				Help:      "How many packages the latest image contains.",
			}),
	}

	r.registry.MustRegister(
		r.stageDuration,
		r.stageRuns,
		r.lockedPackages,
		r.imagePackages,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records the duration and outcome of a stage.
func (r *Recorder) ObserveStage(stage domain.Stage, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	r.stageRuns.WithLabelValues(string(stage), outcome).Inc()
}

// SetLockedPackages records the package count of the latest lock.
func (r *Recorder) SetLockedPackages(n int) {
	r.lockedPackages.Set(float64(n))
}

// SetImagePackages records the package count of the latest image.
func (r *Recorder) SetImagePackages(n int) {
	r.imagePackages.Set(float64(n))
}

// Flush writes all metrics to a textfile at path. An empty path disables writing.
func (r *Recorder) Flush(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrMetricsWriteFailed, err.Error()), "path", path)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrMetricsWriteFailed, err.Error()), "path", path)
	}
	return nil
}
