package pulse

import "github.com/go-pulse/pulse/internal"

// Option configures a signal or computed at construction.
type Option func(*internal.SourceOpts)

// WithName attaches a debug name, used in cycle reports and logs.
func WithName(name string) Option {
	return func(o *internal.SourceOpts) {
		o.Name = name
	}
}

// WithEquals replaces the default equality predicate deciding whether a
// write or recompute counts as a change.
func WithEquals[T any](eq func(a, b T) bool) Option {
	return func(o *internal.SourceOpts) {
		o.Equals = func(a, b any) bool {
			return eq(as[T](a), as[T](b))
		}
	}
}

// WithDefault marks a computed as optional: when its evaluation is
// found to be circular, it yields v instead of panicking.
func WithDefault[T any](v T) Option {
	return func(o *internal.SourceOpts) {
		value := any(v)
		o.Default = &value
		o.Optional = true
	}
}

func buildOpts(opts []Option) internal.SourceOpts {
	var cfg internal.SourceOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Signal is a mutable reactive cell, the leaf of the dependency graph.
type Signal[T any] struct {
	signal *internal.Signal
}

// NewSignal creates your typical read/write signal.
func NewSignal[T any](initial T, opts ...Option) *Signal[T] {
	return &Signal[T]{
		internal.GetRuntime().NewSignal(initial, buildOpts(opts)),
	}
}

// Get reads the current value, tracking the dependency if within a
// reactive context.
func (s *Signal[T]) Get() T {
	return as[T](s.signal.Read())
}

// Peek reads the current value without creating a dependency.
func (s *Signal[T]) Peek() T {
	return as[T](s.signal.Peek())
}

// Set writes a new value, triggering updates to any dependents. No-op
// when the value is equal under the signal's equality predicate.
func (s *Signal[T]) Set(v T) {
	s.signal.Write(v)
}

// Update applies fn to the current value and writes the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.signal.Update(func(v any) any {
		return fn(as[T](v))
	})
}

// Mutate applies fn to the value in place and notifies unconditionally.
// Meant for container types where the reference does not change, so
// equality cannot be consulted.
func (s *Signal[T]) Mutate(fn func(T) T) {
	s.signal.Mutate(func(v any) any {
		return fn(as[T](v))
	})
}

// Subscribe registers a direct callback, delivered once per flush with
// the final value. Returns an unsubscribe function.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	return s.signal.Subscribe(func(v any) {
		fn(as[T](v))
	})
}
