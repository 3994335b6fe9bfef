// Package metrics exports run outcomes in the Prometheus text format for the
// node_exporter textfile collector. The binaries are one-shot jobs, so there
// is no scrape endpoint.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// Recorder holds the metrics of one process on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// Outcomes of update entries by resource kind and result.
	updates *prometheus.CounterVec

	// Failed entries by failure cause.
	failures *prometheus.CounterVec

	// Directory API requests by method and status code.
	requests *prometheus.CounterVec

	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posixsync_updates_total",
				Help: "Update entries processed, by resource kind and result.",
			},
			[]string{"kind", "result"}, // result = "success" | "failure"
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posixsync_update_failures_total",
				Help: "Failed update entries by cause.",
			},
			[]string{"kind", "cause"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posixsync_api_requests_total",
				Help: "Directory API requests sent, by method and status code.",
			},
			[]string{"method", "code"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posixsync_last_run_timestamp_seconds",
			Help: "Unix time the last update run finished.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posixsync_last_run_duration_seconds",
			Help: "Wall time of the last update run.",
		}),
	}
	r.registry.MustRegister(r.updates, r.failures, r.requests, r.lastRun, r.runDuration)
	return r
}

// InstrumentRoundTripper counts every request that passes through next.
func (r *Recorder) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(r.requests, next)
}

// ObserveRun records the outcome of a finished run.
func (r *Recorder) ObserveRun(summary model.RunSummary) {
	for _, res := range summary.Results {
		if res.Success {
			r.updates.WithLabelValues(string(res.Kind), "success").Inc()
			continue
		}
		r.updates.WithLabelValues(string(res.Kind), "failure").Inc()
		r.failures.WithLabelValues(string(res.Kind), string(res.Cause)).Inc()
	}
	r.lastRun.Set(float64(summary.FinishedAt.Unix()))
	r.runDuration.Set(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
}

// WriteTextfile atomically replaces path with the current metric values.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry for inspection.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
