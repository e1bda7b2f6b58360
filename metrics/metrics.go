// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	NodesWritten    *prometheus.CounterVec
	EdgesWritten    *prometheus.CounterVec
	RecordsSkipped  *prometheus.CounterVec
	AdapterDuration *prometheus.HistogramVec
	RunsTotal       *prometheus.CounterVec
}

// New creates a metrics set backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		NodesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biograph_nodes_written_total",
			Help: "Nodes written to CSV output, by adapter entry.",
		}, []string{"adapter"}),
		EdgesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biograph_edges_written_total",
			Help: "Edges written to CSV output, by adapter entry.",
		}, []string{"adapter"}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biograph_records_skipped_total",
			Help: "Input records skipped as malformed or filtered, by adapter entry.",
		}, []string{"adapter"}),
		AdapterDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biograph_adapter_duration_seconds",
			Help:    "Wall time per adapter entry run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"adapter"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biograph_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
	}
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "addr", addr)
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
