// Package metrics exposes pass statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbsmedya/questexport/internal/scheduler"
)

// Pass outcomes used as the result label.
const (
	ResultWritten = "written"
	ResultEmpty   = "empty"
	ResultFailed  = "failed"
)

// Recorder holds the exporter's collectors.
type Recorder struct {
	registry    *prometheus.Registry
	passes      *prometheus.CounterVec
	entries     prometheus.Gauge
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questexport_passes_total",
				Help: "Total number of export passes by result",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "questexport_snapshot_entries",
				Help: "Number of quests collected by the last pass",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "questexport_pass_duration_seconds",
				Help:    "Duration of export passes in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "questexport_last_success_timestamp_seconds",
				Help: "Unix time of the last pass that wrote a snapshot",
			},
		),
	}

	r.registry.MustRegister(r.passes, r.entries, r.duration, r.lastSuccess)
	return r
}

// Observe is a scheduler.Observer.
func (r *Recorder) Observe(_ context.Context, res scheduler.PassResult) {
	r.duration.Observe(res.Duration.Seconds())
	r.entries.Set(float64(len(res.Snapshot)))

	switch {
	case res.Written:
		r.passes.WithLabelValues(ResultWritten).Inc()
		r.lastSuccess.Set(float64(res.StartedAt.Add(res.Duration).Unix()))
	case res.Err == nil && len(res.Snapshot) == 0:
		r.passes.WithLabelValues(ResultEmpty).Inc()
	default:
		r.passes.WithLabelValues(ResultFailed).Inc()
	}
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
