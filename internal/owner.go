package internal

// Owner is a disposal scope. Every computation created while an owner is
// active becomes part of its subtree and is torn down when the owner is
// disposed. Owners also carry cleanup callbacks, panic catchers and
// context values.
type Owner struct {
	parent   *Owner
	children []*Owner

	// cleanups run after children are disposed, in registration order.
	cleanups []func()

	// disposers are internal hooks run once on dispose, used by
	// computations to detach their graph edges.
	disposers []func()

	// catchers handle panics raised within this owner's subtree.
	catchers []func(any)

	// context values set via Context.Set, inherited by child owners.
	context map[any]any

	disposed bool
}

func (r *Runtime) NewOwner() *Owner {
	o := &Owner{}

	if parent := r.tracker.CurrentOwner(); parent != nil {
		parent.addChild(o)
	}

	return o
}

// NewRootOwner creates an owner with no parent, detached from the
// currently active scope.
func (r *Runtime) NewRootOwner() *Owner {
	return &Owner{}
}

func (parent *Owner) addChild(child *Owner) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

func (parent *Owner) removeChild(child *Owner) {
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// Run executes fn with this owner active. A panic inside fn is delivered
// to the nearest owner with a registered catcher, or re-raised if none.
func (o *Owner) Run(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			if !o.catch(v) {
				panic(v)
			}
		}
	}()

	r := GetRuntime()
	r.tracker.RunWithOwner(o, fn)
}

// catch walks up the owner chain looking for panic catchers. Reports
// whether the panic was handled.
func (o *Owner) catch(v any) bool {
	for cur := o; cur != nil; cur = cur.parent {
		if len(cur.catchers) > 0 {
			for _, catcher := range cur.catchers {
				catcher(v)
			}
			return true
		}
	}

	return false
}

// Dispose tears down the subtree: children first, then cleanups in
// registration order. A panicking cleanup is reported to the error sink
// and does not skip the rest. Dispose is idempotent.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	o.reset()

	for _, dispose := range o.disposers {
		dispose()
	}
	o.disposers = nil

	if o.parent != nil {
		o.parent.removeChild(o)
		o.parent = nil
	}
}

// reset disposes children and runs cleanups without retiring the owner.
// Computations reuse their scope this way between runs.
func (o *Owner) reset() {
	o.DisposeChildren()

	cleanups := o.cleanups
	o.cleanups = nil
	for _, cleanup := range cleanups {
		runReported(cleanup)
	}
}

func (o *Owner) DisposeChildren() {
	children := o.children
	o.children = nil
	for _, child := range children {
		child.parent = nil
		child.Dispose()
	}
}

func (o *Owner) OnCleanup(fn func()) {
	o.cleanups = append(o.cleanups, fn)
}

// onDispose registers an internal teardown hook. Unlike cleanups these
// skip resets and run only when the owner is disposed for good.
func (o *Owner) onDispose(fn func()) {
	o.disposers = append(o.disposers, fn)
}

func (o *Owner) OnError(fn func(any)) {
	o.catchers = append(o.catchers, fn)
}

func (o *Owner) Disposed() bool { return o.disposed }

// runReported invokes fn, reporting (not propagating) any panic.
func runReported(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			sinkError("cleanup panicked", v)
		}
	}()

	fn()
}
