package pulse

import "github.com/go-pulse/pulse/internal"

// Cleanup is an optional callback returned by an effect body, invoked
// right before the next re-run and on disposal.
type Cleanup = func()

// EffectOption configures an effect.
type EffectOption func(*internal.EffectOpts)

// WithDefer skips the immediate first run; the effect first executes at
// the next flush.
func WithDefer() EffectOption {
	return func(o *internal.EffectOpts) {
		o.Defer = true
	}
}

// WithScheduler substitutes the default run-at-flush scheduling. The
// scheduler receives the coalesced re-run thunk and decides when to
// invoke it (e.g. on an animation frame).
func WithScheduler(schedule func(run func())) EffectOption {
	return func(o *internal.EffectOpts) {
		o.Scheduler = schedule
	}
}

// WithEffectName attaches a debug name to the effect.
func WithEffectName(name string) EffectOption {
	return func(o *internal.EffectOpts) {
		o.Name = name
	}
}

// Effect is a reactive side effect: it re-runs whenever a signal or
// computed it read during its last run changes. Panics in the body are
// reported to the nearest owner with an error listener, or to the
// process sink, and never stop future re-runs.
type Effect struct {
	effect *internal.Effect
}

// NewEffect creates an effect that runs fn immediately (unless
// deferred) and again whenever its dependencies change. Cleanups are
// registered with OnCleanup inside the body.
func NewEffect(fn func(), opts ...EffectOption) *Effect {
	return NewEffectWithCleanup(func() Cleanup {
		fn()
		return nil
	}, opts...)
}

// NewEffectWithCleanup is NewEffect for bodies returning a cleanup
// callback; it is invoked exactly once per run, before the next run or
// on disposal.
func NewEffectWithCleanup(fn func() Cleanup, opts ...EffectOption) *Effect {
	var cfg internal.EffectOpts
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Effect{
		internal.GetRuntime().NewEffect(func() func() {
			return fn()
		}, cfg),
	}
}

// Dispose stops the effect permanently, running its pending cleanup and
// detaching every dependency edge.
func (e *Effect) Dispose() {
	e.effect.Dispose()
}
