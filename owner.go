package pulse

import "github.com/go-pulse/pulse/internal"

// Owner manages the lifecycle of reactive nodes created within its
// context: disposing an owner disposes all of its children first, then
// runs its cleanups in registration order.
type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new owner as a child of the currently active one
// (or a root owner if none is active).
func NewOwner() *Owner {
	return &Owner{
		internal.GetRuntime().NewOwner(),
	}
}

// Run executes fn within the context of this owner. Each reactive node
// created inside becomes a child and is torn down by Dispose.
func (o *Owner) Run(fn func() error) error {
	var err error
	o.owner.Run(func() { err = fn() })
	return err
}

// Dispose tears down this owner and all its children. Idempotent. A
// panicking cleanup is reported to the error sink and does not skip the
// remaining cleanups.
func (o *Owner) Dispose() { o.owner.Dispose() }

// OnCleanup registers fn to be called once when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// OnError registers a handler for panics raised within this owner's
// subtree. Without any handler up the chain, panics from Run propagate
// and panics from effects go to the error sink.
func (o *Owner) OnError(fn func(any)) { o.owner.OnError(fn) }

// CreateRoot creates a parentless owner, runs fn with a dispose
// callback bound to it and returns fn's result.
func CreateRoot[T any](fn func(dispose func()) T) T {
	owner := internal.GetRuntime().NewRootOwner()

	var result T
	owner.Run(func() {
		result = fn(owner.Dispose)
	})

	return result
}

// Context is a value scoped to the ownership tree: Set stores it on the
// active owner, Value walks up the chain and falls back to the initial
// value.
type Context[T any] struct {
	ctx *internal.Context
}

// NewContext creates a reactive context with an initial value.
func NewContext[T any](initial T) *Context[T] {
	return &Context[T]{
		internal.GetRuntime().NewContext(initial),
	}
}

// Value retrieves the context value, inheriting from parent owners if
// not set in the current one.
func (c *Context[T]) Value() T {
	return as[T](c.ctx.Value())
}

// Set stores a new value for the context on the current owner.
func (c *Context[T]) Set(value T) {
	c.ctx.Set(value)
}
