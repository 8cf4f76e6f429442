package internal

// Effect is a push-evaluated side-effecting computation. Invalidation
// schedules a re-run through the flush queue; multiple invalidations
// within one batch coalesce into a single run.
type Effect struct {
	Node

	body    func() func()
	cleanup func()

	// scope owns nested computations and OnCleanup registrations; it is
	// reset before every run so nested effects are disposed and
	// recreated with the outer run.
	scope *Owner

	// schedule, when set, decides when the coalesced re-run executes.
	// nil means synchronously during the flush.
	schedule func(run func())
}

// EffectOpts configures an effect.
type EffectOpts struct {
	Name string

	// Defer skips the immediate first run; the effect first executes at
	// the next flush.
	Defer bool

	Scheduler func(run func())
}

func (r *Runtime) NewEffect(body func() func(), opts EffectOpts) *Effect {
	e := &Effect{
		Node:     Node{id: nextID(), name: opts.Name},
		body:     body,
		schedule: opts.Scheduler,
	}
	e.scope = r.NewOwner()

	e.scope.onDispose(func() {
		e.flags.Set(FlagDisposed)
		r.heap.Remove(e)
		r.clearDeps(e)

		if e.cleanup != nil {
			cleanup := e.cleanup
			e.cleanup = nil
			runReported(cleanup)
		}
	})

	if opts.Defer {
		e.flags.Set(FlagDirty)
		r.heap.Insert(e)
	} else {
		e.run(r)
	}

	return e
}

func (e *Effect) observed() bool { return true }

// effects are not readable sources, but ensure is needed so a disposed
// effect queued behind a dependency resolves cleanly.
func (e *Effect) ensure(r *Runtime) {}

// maybeRun executes the effect during flush if one of its dependencies
// actually changed; a Check mark that resolves to no change is dropped.
func (e *Effect) maybeRun(r *Runtime) {
	if e.flags.Has(FlagDisposed) {
		return
	}

	if !r.needsRun(e) {
		e.flags.Clear(FlagDirty | FlagCheck)
		return
	}

	if e.schedule != nil {
		e.flags.Clear(FlagDirty | FlagCheck)
		e.schedule(func() {
			e.run(GetRuntime())
		})
		return
	}

	e.run(r)
}

func (e *Effect) run(r *Runtime) {
	if e.flags.Has(FlagDisposed) {
		return
	}
	e.flags.Clear(FlagDirty | FlagCheck)

	countEffectRun()

	// The previous run's cleanup fires exactly once, right before the
	// next run or on disposal.
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		runReported(cleanup)
	}

	e.scope.reset()
	r.clearDeps(e)

	defer func() {
		if v := recover(); v != nil {
			if !e.scope.catch(v) {
				sinkError("effect panicked", v)
			}
		}
	}()

	r.tracker.RunWithComputation(e, e.scope, func() {
		e.cleanup = e.body()
	})
}

// Dispose stops the effect permanently and runs its pending cleanup.
func (e *Effect) Dispose() {
	e.scope.Dispose()
}

func (e *Effect) Disposed() bool {
	return e.flags.Has(FlagDisposed)
}
