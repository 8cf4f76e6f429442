package internal

// Tracker holds the "currently executing" context of the engine: the
// owner new nodes attach to and the computation whose dependencies are
// being recorded.
type Tracker struct {
	tracking bool

	currentOwner *Owner     // lifecycle and cleanup registration
	currentComp  Subscriber // reactive dependency recording
}

func NewTracker() *Tracker {
	return &Tracker{tracking: true}
}

func (t *Tracker) CurrentOwner() *Owner    { return t.currentOwner }
func (t *Tracker) CurrentComp() Subscriber { return t.currentComp }

func (t *Tracker) RunWithOwner(owner *Owner, fn func()) {
	prev := t.currentOwner
	t.currentOwner = owner
	defer func() { t.currentOwner = prev }()

	fn()
}

// RunWithComputation executes fn with sub as the tracking target and
// scope as the active owner, restoring both afterwards (supports nesting).
func (t *Tracker) RunWithComputation(sub Subscriber, scope *Owner, fn func()) {
	prevOwner := t.currentOwner
	prevComp := t.currentComp

	t.currentOwner = scope
	t.currentComp = sub

	defer func() {
		t.currentOwner = prevOwner
		t.currentComp = prevComp
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}

// Track links src as a dependency of the computation currently running,
// if any.
func (t *Tracker) Track(r *Runtime, src Source) {
	if t.ShouldTrack() {
		r.link(t.currentComp, src)
	}
}

func (t *Tracker) ShouldTrack() bool {
	return t.currentComp != nil && t.tracking
}
