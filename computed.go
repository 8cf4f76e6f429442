package pulse

import "github.com/go-pulse/pulse/internal"

// Computed is a memoized signal deriving its value from other signals.
// Evaluation is lazy: invalidation only marks it stale, the next Get
// recomputes.
type Computed[T any] struct {
	computed *internal.Computed
}

// NewComputed creates a computed signal. The function is not run until
// the first read.
func NewComputed[T any](compute func() T, opts ...Option) *Computed[T] {
	return &Computed[T]{
		internal.GetRuntime().NewComputed(func() any {
			return compute()
		}, buildOpts(opts)),
	}
}

// Get returns the current value, recomputing if stale, and tracks the
// dependency if within a reactive context. If the last computation
// panicked, Get re-panics with the cached value until a dependency
// change allows a fresh computation.
func (c *Computed[T]) Get() T {
	return as[T](c.computed.Read())
}

// Peek is Get without dependency tracking.
func (c *Computed[T]) Peek() T {
	return as[T](c.computed.Peek())
}

// Subscribe registers a direct callback invoked when the computed's
// value changes, once per flush. Returns an unsubscribe function.
func (c *Computed[T]) Subscribe(fn func(T)) func() {
	return c.computed.Subscribe(func(v any) {
		fn(as[T](v))
	})
}

// Dispose detaches the computed from the graph. Further reads return
// the last cached value without recomputing.
func (c *Computed[T]) Dispose() {
	c.computed.Dispose()
}
