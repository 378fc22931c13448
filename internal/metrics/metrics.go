// Package metrics exposes editing and backup activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "quizbuilder"

// Metrics implements history.Observer and records backup runs on its own
// registry.
type Metrics struct {
	commits        prometheus.Counter
	discarded      prometheus.Counter
	undos          prometheus.Counter
	redos          prometheus.Counter
	persistFailed  prometheus.Counter
	historyDepth   prometheus.Gauge
	backupRuns     *prometheus.CounterVec
	backupDuration prometheus.Histogram
	backupDocs     prometheus.Gauge

	registry *prometheus.Registry
}

// New creates Metrics with every collector registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "commits_total",
			Help:      "Total number of committed history entries",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "discarded_total",
			Help:      "Total number of commits dropped because nothing changed",
		}),
		undos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "undo_total",
			Help:      "Total number of undo steps",
		}),
		redos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "redo_total",
			Help:      "Total number of redo steps",
		}),
		persistFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_failures_total",
			Help:      "Total number of commits that could not be saved",
		}),
		historyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "depth",
			Help:      "Current number of undoable entries",
		}),
		backupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "runs_total",
			Help:      "Total number of backup runs",
		}, []string{"status"}),
		backupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "duration_seconds",
			Help:      "Duration of backup runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		backupDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "documents",
			Help:      "Number of documents written by the last backup",
		}),
	}
	m.registry.MustRegister(
		m.commits,
		m.discarded,
		m.undos,
		m.redos,
		m.persistFailed,
		m.historyDepth,
		m.backupRuns,
		m.backupDuration,
		m.backupDocs,
	)
	return m
}

func (m *Metrics) Committed(depth int) {
	m.commits.Inc()
	m.historyDepth.Set(float64(depth))
}

func (m *Metrics) Discarded()     { m.discarded.Inc() }
func (m *Metrics) Undone()        { m.undos.Inc() }
func (m *Metrics) Redone()        { m.redos.Inc() }
func (m *Metrics) PersistFailed() { m.persistFailed.Inc() }

// BackupFinished records one backup run.
func (m *Metrics) BackupFinished(written, failed int, d time.Duration) {
	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	m.backupRuns.WithLabelValues(status).Inc()
	m.backupDuration.Observe(d.Seconds())
	m.backupDocs.Set(float64(written))
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
