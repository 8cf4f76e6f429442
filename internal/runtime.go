package internal

import "time"

// Runtime is the per-goroutine engine instance: the dependency heap,
// the tracking context, batching state and the delivery queues. All
// graph mutation is single-writer within one runtime.
type Runtime struct {
	heap          *DirtyHeap
	tracker       *Tracker
	cycles        *CycleResolver
	notifications *NotifyQueue
	settled       *SettledQueue

	// batchDepth gates flushing; nested batches share the counter and
	// only the outermost exit delivers.
	batchDepth int

	flushing bool

	settings Settings
}

// Settings is the engine configuration applied per runtime.
type Settings struct {
	CyclePolicy CyclePolicy
	Debug       bool
}

func NewRuntime() *Runtime {
	return &Runtime{
		heap:          NewHeap(),
		tracker:       NewTracker(),
		cycles:        NewCycleResolver(),
		notifications: NewNotifyQueue(),
		settled:       NewSettledQueue(),
	}
}

func (r *Runtime) Configure(s Settings) {
	r.settings = s
	r.cycles.policy = s.CyclePolicy
}

func (r *Runtime) Settings() Settings { return r.settings }

// Schedule triggers a flush unless one is deferred by an open batch or
// already in progress.
func (r *Runtime) Schedule() {
	if r.batchDepth == 0 && !r.flushing {
		r.Flush()
	}
}

// Flush drains the dirty heap in non-decreasing height order, running
// invalidated effects and refreshing subscribed computeds, then
// delivers the deduplicated subscriber notifications. Work scheduled by
// effects themselves is drained in follow-up passes until the graph
// quiesces, after which settled callbacks fire once.
func (r *Runtime) Flush() {
	if r.flushing {
		return
	}
	r.flushing = true
	defer func() { r.flushing = false }()

	start := time.Now()

	for {
		for r.heap.Len() > 0 || r.notifications.Len() > 0 {
			r.heap.Drain(func(sub Subscriber) {
				switch n := sub.(type) {
				case *Computed:
					n.refresh(r)
				case *Effect:
					n.maybeRun(r)
				}
			})

			r.notifications.Deliver()
		}

		if r.settled.Len() == 0 {
			break
		}
		r.settled.Run()
	}

	countFlush(time.Since(start))
}

// Batch runs fn with notification delivery deferred until the outermost
// batch exits. Writes still land in signal storage immediately. A panic
// in fn flushes whatever was queued, then propagates.
func (r *Runtime) Batch(fn func()) {
	r.batchDepth++
	defer func() {
		r.batchDepth--
		if r.batchDepth == 0 {
			r.Flush()
		}
	}()

	fn()
}

func (r *Runtime) IsBatching() bool { return r.batchDepth > 0 }

// OnCleanup registers fn on the currently active owner; no-op when
// truly ownerless.
func (r *Runtime) OnCleanup(fn func()) {
	if owner := r.tracker.CurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

// OnSettled registers a one-shot callback for when the next flush
// quiesces. Outside any pending work it fires on the next write.
func (r *Runtime) OnSettled(fn func()) {
	r.settled.Enqueue(fn)
}

// Untrack runs fn with dependency recording suspended.
func (r *Runtime) Untrack(fn func()) {
	r.tracker.RunUntracked(fn)
}

func (r *Runtime) CurrentOwner() *Owner { return r.tracker.CurrentOwner() }
