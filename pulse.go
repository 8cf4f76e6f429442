// Package pulse is a fine-grained reactive computation engine: mutable
// signals, memoized computeds, auto-scheduled effects and a disposable
// ownership tree, with at-most-once-per-batch recomputation.
//
// The package is a thin generic facade over the type-erased runtime in
// internal/. Each goroutine gets its own runtime, so the tracking
// context stays single-writer.
package pulse

import (
	"context"

	"github.com/go-pulse/pulse/internal"
	"github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// NewBatch coalesces multiple signal writes into a single update cycle.
// Writes apply to storage immediately; notification and effect
// re-runs are deferred until the outermost batch completes. A panic in
// fn still flushes what was queued, then propagates.
func NewBatch(fn func()) {
	internal.GetRuntime().Batch(fn)
}

var tracer = otel.Tracer("github.com/go-pulse/pulse")

// NewBatchNamed is NewBatch wrapped in an OpenTelemetry span, so flush
// boundaries show up in traces.
func NewBatchNamed(ctx context.Context, name string, fn func()) {
	_, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	NewBatch(fn)
}

// Untrack runs the given function without tracking any reactive
// dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called when the current owner is
// disposed. No-op outside any owner.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// OnSettled registers a one-shot callback that runs once the next flush
// fully quiesces, including effects chained off other effects.
func OnSettled(fn func()) {
	internal.GetRuntime().OnSettled(fn)
}

// SetLogger replaces the process-wide error sink. Effect panics,
// swallowed cleanup panics and cycle recoveries are reported there.
func SetLogger(l log15.Logger) {
	internal.SetLogger(l)
}

// EnableMetrics registers the engine's Prometheus collectors. A nil
// registerer uses the default one.
func EnableMetrics(reg prometheus.Registerer) {
	internal.EnableMetrics(reg)
}

// CircularDependencyError is raised when evaluating a computed
// re-enters itself and no recovery is configured.
type CircularDependencyError = internal.CircularDependencyError
