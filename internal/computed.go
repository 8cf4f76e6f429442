package internal

// Computed is a memoized, pull-evaluated derived signal. Its cache is
// valid iff it is initialized and neither Dirty nor Check resolve to a
// real change. Recomputation happens only on read.
type Computed struct {
	Signal

	compute func() any

	// scope owns computations created inside the body; it is reset
	// before every recompute.
	scope *Owner

	initialized bool

	// errValue caches a panic raised by the body. Reads re-panic it
	// until a dependency change triggers a successful recompute.
	errValue any

	optional   bool
	defaultVal *any

	// lastNotified is the version direct subscribers last saw.
	lastNotified uint64
}

func (r *Runtime) NewComputed(compute func() any, opts SourceOpts) *Computed {
	c := &Computed{
		Signal:  Signal{Node: Node{id: nextID(), name: opts.Name}},
		compute: compute,
	}
	c.equals = opts.Equals
	c.optional = opts.Optional
	c.defaultVal = opts.Default
	c.scope = r.NewOwner()

	c.scope.onDispose(func() {
		c.flags.Set(FlagDisposed)
		r.heap.Remove(c)
		r.clearDeps(c)
	})

	return c
}

func (c *Computed) observed() bool {
	return len(c.subscribers) > 0
}

// Read returns the current value, recomputing if stale, and tracks this
// computed as a dependency of the enclosing computation.
func (c *Computed) Read() any {
	r := GetRuntime()

	if !r.cycles.Enter(c) {
		return c.fallback()
	}
	defer r.cycles.Exit(c)

	c.ensure(r)
	r.tracker.Track(r, c)

	if c.errValue != nil {
		panic(c.errValue)
	}

	return c.value
}

// Peek is Read without dependency tracking.
func (c *Computed) Peek() any {
	r := GetRuntime()

	if !r.cycles.Enter(c) {
		return c.fallback()
	}
	defer r.cycles.Exit(c)

	c.ensure(r)

	if c.errValue != nil {
		panic(c.errValue)
	}

	return c.value
}

// fallback is the value handed out when the cycle resolver reports
// "cannot proceed": the configured default if any, else the last cached
// value.
func (c *Computed) fallback() any {
	if c.defaultVal != nil {
		return *c.defaultVal
	}
	return c.value
}

// ensure brings the cache up to date. A Dirty node recomputes
// unconditionally; a Check node first pulls its dependencies in
// recorded order and recomputes only if one actually changed version.
func (c *Computed) ensure(r *Runtime) {
	if c.flags.Has(FlagDisposed) || c.flags.Has(FlagComputing) {
		return
	}

	if !c.initialized || c.flags.Has(FlagDirty) {
		c.recompute(r)
		return
	}

	if c.flags.Has(FlagCheck) {
		for i := range c.deps {
			d := &c.deps[i]
			d.Source.ensure(r)
			if d.Source.base().version != d.Version {
				c.recompute(r)
				return
			}
		}
		c.flags.Clear(FlagCheck)
	}
}

func (c *Computed) recompute(r *Runtime) {
	countRecompute()

	c.flags.Set(FlagComputing)
	defer func() {
		c.flags.Clear(FlagComputing | FlagDirty | FlagCheck)
	}()

	c.scope.reset()
	r.clearDeps(c)

	old := c.value
	wasInit := c.initialized
	c.initialized = true

	result, panicked := c.runBody(r)
	if panicked != nil {
		c.errValue = panicked
		c.version++
		return
	}

	c.errValue = nil
	if !wasInit || !c.eq(old, result) {
		c.value = result
		c.version++
	}
}

func (c *Computed) runBody(r *Runtime) (result any, panicked any) {
	defer func() {
		panicked = recover()
	}()

	r.tracker.RunWithComputation(c, c.scope, func() {
		result = c.compute()
	})

	return result, nil
}

// refresh runs at flush time for computeds with direct subscribers: it
// pulls the value current and queues subscriber delivery if it changed.
func (c *Computed) refresh(r *Runtime) {
	if c.flags.Has(FlagDisposed) {
		return
	}

	if !r.needsRun(c) {
		c.flags.Clear(FlagDirty | FlagCheck)
		return
	}

	c.ensure(r)

	if c.version != c.lastNotified && len(c.subscribers) > 0 {
		c.lastNotified = c.version
		r.notifications.Enqueue(&c.Node, c.notify)
	}
}

// Subscribe registers a direct callback. Deliveries start with the
// first change observed after subscription.
func (c *Computed) Subscribe(fn func(any)) func() {
	if len(c.subscribers) == 0 {
		c.lastNotified = c.version
	}
	return c.Signal.Subscribe(fn)
}

// Dispose detaches the computed from the graph and marks it inert.
func (c *Computed) Dispose() {
	c.scope.Dispose()
}
