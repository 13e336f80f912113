package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const namespace = "reelforge"

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Collector is a workflow observer that times runs and committed stages.
type Collector struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	stagesCommitted  *prometheus.CounterVec
	runFailures      *prometheus.CounterVec
	lastRunTimestamp *prometheus.GaugeVec

	logger *slog.Logger

	mu       sync.Mutex
	started  map[string]time.Time
	lastMark map[string]time.Time
	now      func() time.Time
}

// NewCollector registers the reelforge series on a private registry.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logging.NewComponentLogger(logger, "metrics"),
		started:  make(map[string]time.Time),
		lastMark: make(map[string]time.Time),
		now:      time.Now,
	}

	c.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by content kind and outcome.",
	}, []string{"kind", "outcome"})
	c.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of one pipeline run.",
		Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400, 3600},
	}, []string{"kind", "outcome"})
	c.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time from the previous commit (or run start) to a stage commit.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"kind", "stage"})
	c.stagesCommitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stages_committed_total",
		Help:      "Stage commits by content kind and stage.",
	}, []string{"kind", "stage"})
	c.runFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "run_failures_total",
		Help:      "Failed runs by content kind, resting stage, and error kind.",
	}, []string{"kind", "stage", "error_kind"})
	c.lastRunTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run of each outcome finished.",
	}, []string{"outcome"})

	c.registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.stageDuration,
		c.stagesCommitted,
		c.runFailures,
		c.lastRunTimestamp,
	)
	return c
}

// Registry exposes the collector's registry for tests and exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RunStarted marks the start of a run.
func (c *Collector) RunStarted(_ context.Context, e *content.Entity) {
	now := c.now()
	c.mu.Lock()
	c.started[e.Dir()] = now
	c.lastMark[e.Dir()] = now
	c.mu.Unlock()
}

// StageCommitted observes the time since the previous mark.
func (c *Collector) StageCommitted(_ context.Context, e *content.Entity, name stage.Name) {
	now := c.now()
	c.mu.Lock()
	prev, ok := c.lastMark[e.Dir()]
	c.lastMark[e.Dir()] = now
	c.mu.Unlock()

	kind := e.Kind().Name()
	c.stagesCommitted.WithLabelValues(kind, string(name)).Inc()
	if ok {
		c.stageDuration.WithLabelValues(kind, string(name)).Observe(now.Sub(prev).Seconds())
	}
}

// RunFinished records the outcome and total duration.
func (c *Collector) RunFinished(_ context.Context, e *content.Entity, err error) {
	now := c.now()
	c.mu.Lock()
	start, ok := c.started[e.Dir()]
	delete(c.started, e.Dir())
	delete(c.lastMark, e.Dir())
	c.mu.Unlock()

	kind := e.Kind().Name()
	outcome := outcomeOf(err)
	c.runsTotal.WithLabelValues(kind, outcome).Inc()
	if ok {
		c.runDuration.WithLabelValues(kind, outcome).Observe(now.Sub(start).Seconds())
	}
	if outcome == OutcomeFailed {
		c.runFailures.WithLabelValues(kind, string(e.Current()), services.Details(err).Kind).Inc()
	}
	c.lastRunTimestamp.WithLabelValues(outcome).Set(float64(now.Unix()))
}

// outcomeOf separates interrupts from failures; a run timeout is a failure.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

// WriteTextfile writes the registry in the Prometheus text format. The file
// is replaced atomically so the collector never reads a partial write.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	c.logger.Debug("metrics textfile written", logging.String("path", path))
	return nil
}
