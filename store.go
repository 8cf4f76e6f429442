package pulse

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// WriteContext carries a pending store write through the middleware
// chain. Handlers may rewrite NewValue or abort the write entirely.
type WriteContext struct {
	// Path is the dot-separated location of the write, "" for the root.
	Path string

	// OldValue is the value currently stored at Path (nil if absent).
	OldValue any

	// NewValue is the value about to be written. Middleware may replace
	// it via Replace.
	NewValue any

	aborted bool
}

// Abort cancels the write. Later middleware does not run and no
// subscriber is notified.
func (w *WriteContext) Abort() { w.aborted = true }

// Aborted reports whether an earlier handler cancelled the write.
func (w *WriteContext) Aborted() bool { return w.aborted }

// Replace substitutes the value to be written.
func (w *WriteContext) Replace(v any) { w.NewValue = v }

// Middleware intercepts store writes. Lower priorities run first;
// handlers with equal priority run in registration order.
type Middleware struct {
	Name     string
	Priority int
	Handler  func(*WriteContext)
}

// SubOption configures a store subscription.
type SubOption func(*subOptions)

type subOptions struct {
	immediate bool
	deep      bool
	equals    func(a, b any) bool
	debounce  time.Duration
}

// WithImmediate delivers the current value to the callback right away,
// with a nil old value.
func WithImmediate() SubOption {
	return func(o *subOptions) { o.immediate = true }
}

// WithDeep also notifies when a descendant of the subscribed path
// changes, delivering the value at the subscribed path.
func WithDeep() SubOption {
	return func(o *subOptions) { o.deep = true }
}

// WithSubEquals suppresses notifications whose old and new values are
// equal under eq.
func WithSubEquals(eq func(a, b any) bool) SubOption {
	return func(o *subOptions) { o.equals = eq }
}

// WithSubDebounce coalesces rapid notifications, delivering only the
// final value after d of quiet.
func WithSubDebounce(d time.Duration) SubOption {
	return func(o *subOptions) { o.debounce = d }
}

type storeSub struct {
	id      uuid.UUID
	pattern string
	matcher glob.Glob
	literal bool
	opts    subOptions
	cb      func(newValue, oldValue any, path string)

	mu          sync.Mutex
	timer       *time.Timer
	pendingNew  any
	pendingOld  any
	pendingPath string
	cancelled   bool
}

// Store is a reactive container for a nested value, addressed by
// dot-separated paths. Writes flow through the middleware chain, then
// update the root signal and any per-path signals, then notify matching
// subscriptions. Reads through Get and PathSignal participate in
// dependency tracking like any other signal.
type Store[T any] struct {
	root *Signal[T]

	mu          sync.Mutex
	middlewares []Middleware
	subs        []*storeSub
	pathSignals map[string]*Signal[any]
}

// NewStore creates a store holding initial.
func NewStore[T any](initial T, opts ...Option) *Store[T] {
	return &Store[T]{
		root:        NewSignal(initial, opts...),
		pathSignals: map[string]*Signal[any]{},
	}
}

// Get reads the root value, tracking the dependency.
func (s *Store[T]) Get() T { return s.root.Get() }

// Peek reads the root value without tracking.
func (s *Store[T]) Peek() T { return s.root.Peek() }

// GetPath reads the value at a dot-separated path, tracking a
// dependency on that path only.
func (s *Store[T]) GetPath(path string) any {
	return s.PathSignal(path).Get()
}

// PathSignal returns the lazily created signal backing a single path.
// It updates only when a write touches that path or one of its
// ancestors or descendants, so effects reading it skip unrelated
// writes.
func (s *Store[T]) PathSignal(path string) *Signal[any] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ps, ok := s.pathSignals[path]; ok {
		return ps
	}

	current, _ := valueAt(s.root.Peek(), path)
	ps := NewSignal[any](current)
	s.pathSignals[path] = ps
	return ps
}

// Set replaces the root value.
func (s *Store[T]) Set(v T) error {
	return s.write("", v)
}

// SetPath writes a value at a dot-separated path, copying the
// containers along the way so untouched branches keep their identity.
// Intermediate maps are created as needed.
func (s *Store[T]) SetPath(path string, v any) error {
	return s.write(path, v)
}

// Update applies fn to the value at path and writes the result.
func (s *Store[T]) Update(path string, fn func(any) any) error {
	current, err := valueAt(s.root.Peek(), path)
	if err != nil {
		return err
	}
	return s.write(path, fn(current))
}

// Use registers a middleware. Returns a function removing it again.
func (s *Store[T]) Use(mw Middleware) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.middlewares = append(s.middlewares, mw)
	sort.SliceStable(s.middlewares, func(i, j int) bool {
		return s.middlewares[i].Priority < s.middlewares[j].Priority
	})

	removed := false
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if removed {
			return
		}
		removed = true
		for i := range s.middlewares {
			if s.middlewares[i].Name == mw.Name && s.middlewares[i].Priority == mw.Priority {
				s.middlewares = append(s.middlewares[:i], s.middlewares[i+1:]...)
				return
			}
		}
	}
}

// Subscribe registers a callback for writes matching pattern. Patterns
// use '.' as the segment separator and support glob wildcards ('*' for
// one segment, '**' for any number). A literal pattern also fires when
// an ancestor write replaces the subtree containing it, and, with
// WithDeep, when a descendant changes. Returns an unsubscribe function.
func (s *Store[T]) Subscribe(pattern string, cb func(newValue, oldValue any, path string), opts ...SubOption) func() {
	var cfg subOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := &storeSub{
		id:      uuid.New(),
		pattern: pattern,
		literal: !strings.ContainsAny(pattern, "*?[{"),
		opts:    cfg,
		cb:      cb,
	}
	if !sub.literal {
		sub.matcher = glob.MustCompile(pattern, '.')
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	if cfg.immediate && sub.literal {
		current, _ := valueAt(s.root.Peek(), pattern)
		cb(current, nil, pattern)
	}

	id := sub.id
	return func() {
		sub.mu.Lock()
		sub.cancelled = true
		if sub.timer != nil {
			sub.timer.Stop()
			sub.timer = nil
		}
		sub.mu.Unlock()

		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.subs {
			if s.subs[i].id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[T]) write(path string, v any) error {
	oldRoot := s.root.Peek()
	oldValue, err := valueAt(oldRoot, path)
	if err != nil {
		return err
	}

	wc := &WriteContext{Path: path, OldValue: oldValue, NewValue: v}

	s.mu.Lock()
	chain := make([]Middleware, len(s.middlewares))
	copy(chain, s.middlewares)
	s.mu.Unlock()

	for _, mw := range chain {
		mw.Handler(wc)
		if wc.aborted {
			return nil
		}
	}

	var newRoot T
	if path == "" {
		nv, ok := wc.NewValue.(T)
		if !ok {
			return &PathError{Path: path, Op: "set", Reason: "root value has wrong type"}
		}
		newRoot = nv
	} else {
		nr, err := withValueAt(oldRoot, path, wc.NewValue)
		if err != nil {
			return err
		}
		nv, ok := nr.(T)
		if !ok {
			return &PathError{Path: path, Op: "set", Reason: "root value has wrong type"}
		}
		newRoot = nv
	}

	s.mu.Lock()
	touched := make(map[string]*Signal[any], len(s.pathSignals))
	for p, ps := range s.pathSignals {
		if pathsOverlap(p, path) {
			touched[p] = ps
		}
	}
	s.mu.Unlock()

	NewBatch(func() {
		s.root.Set(newRoot)
		for p, ps := range touched {
			nv, _ := valueAt(newRoot, p)
			ps.Set(nv)
		}
	})

	s.notify(path, wc.NewValue, oldValue, newRoot, oldRoot)
	return nil
}

// notify fans a committed write out to matching subscriptions. Three
// relations count as a match: the pattern matches the written path, the
// written path sits above a literal pattern (the subtree was replaced),
// or, for deep subscriptions, below it.
func (s *Store[T]) notify(path string, newValue, oldValue any, newRoot, oldRoot T) {
	s.mu.Lock()
	subs := make([]*storeSub, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		at, nv, ov, ok := sub.match(path, newValue, oldValue, newRoot, oldRoot)
		if !ok {
			continue
		}
		if sub.opts.equals != nil && sub.opts.equals(nv, ov) {
			continue
		}
		sub.deliver(nv, ov, at)
	}
}

func (sub *storeSub) match(path string, newValue, oldValue any, newRoot, oldRoot any) (at string, nv, ov any, ok bool) {
	direct := false
	if sub.literal {
		direct = sub.pattern == path
	} else {
		direct = sub.matcher.Match(path)
	}
	if direct {
		return path, newValue, oldValue, true
	}

	if !sub.literal {
		return "", nil, nil, false
	}

	// Ancestor write: "" or a proper prefix of the pattern. The value at
	// the subscribed path may have been swapped out wholesale.
	if path == "" || strings.HasPrefix(sub.pattern, path+".") {
		nv, _ = valueAt(newRoot, sub.pattern)
		ov, _ = valueAt(oldRoot, sub.pattern)
		return sub.pattern, nv, ov, true
	}

	// Descendant write, deep subscriptions only.
	if sub.opts.deep && (sub.pattern == "" || strings.HasPrefix(path, sub.pattern+".")) {
		nv, _ = valueAt(newRoot, sub.pattern)
		ov, _ = valueAt(oldRoot, sub.pattern)
		return sub.pattern, nv, ov, true
	}

	return "", nil, nil, false
}

func (sub *storeSub) deliver(newValue, oldValue any, path string) {
	if sub.opts.debounce <= 0 {
		sub.cb(newValue, oldValue, path)
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.cancelled {
		return
	}

	// Keep the oldest old value across the coalesced window.
	if sub.timer == nil {
		sub.pendingOld = oldValue
	}
	sub.pendingNew = newValue
	sub.pendingPath = path

	if sub.timer != nil {
		sub.timer.Stop()
	}
	sub.timer = time.AfterFunc(sub.opts.debounce, func() {
		sub.mu.Lock()
		if sub.cancelled {
			sub.mu.Unlock()
			return
		}
		nv, ov, p := sub.pendingNew, sub.pendingOld, sub.pendingPath
		sub.timer = nil
		sub.mu.Unlock()
		sub.cb(nv, ov, p)
	})
}

// pathsOverlap reports whether a write at b can change the value read
// at a: equal paths, or one an ancestor of the other.
func pathsOverlap(a, b string) bool {
	if a == b || a == "" || b == "" {
		return true
	}
	return strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}
