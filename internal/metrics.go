package internal

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine instrumentation, off by default. EnableMetrics wires the
// collectors into a registerer; counting helpers are nil-guarded so the
// hot paths stay cheap when disabled.
type engineMetrics struct {
	recomputes   prometheus.Counter
	effectRuns   prometheus.Counter
	flushes      prometheus.Counter
	cycles       prometheus.Counter
	staleResults prometheus.Counter

	flushDuration prometheus.Histogram
}

var (
	metricsMu sync.Mutex
	metrics   *engineMetrics
)

// EnableMetrics registers the engine collectors. A nil registerer uses
// the prometheus default. Calling it again is a no-op.
func EnableMetrics(reg prometheus.Registerer) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if metrics != nil {
		return
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	metrics = &engineMetrics{
		recomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "recomputations_total",
			Help:      "Number of computed re-executions.",
		}),
		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "effect_runs_total",
			Help:      "Number of effect executions.",
		}),
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "flushes_total",
			Help:      "Number of notification flush passes.",
		}),
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "cycles_detected_total",
			Help:      "Number of circular dependencies detected.",
		}),
		staleResults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "stale_async_results_total",
			Help:      "Number of async results discarded by version fencing.",
		}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pulse",
			Name:      "flush_duration_seconds",
			Help:      "Duration of flush passes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func countRecompute() {
	if m := metrics; m != nil {
		m.recomputes.Inc()
	}
}

func countEffectRun() {
	if m := metrics; m != nil {
		m.effectRuns.Inc()
	}
}

func countFlush(d time.Duration) {
	if m := metrics; m != nil {
		m.flushes.Inc()
		m.flushDuration.Observe(d.Seconds())
	}
}

func countCycle() {
	if m := metrics; m != nil {
		m.cycles.Inc()
	}
}

// CountStaleResult records an async result discarded by the version
// guard.
func CountStaleResult() {
	if m := metrics; m != nil {
		m.staleResults.Inc()
	}
}
