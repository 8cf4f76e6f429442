package internal

import "reflect"

// Signal is an atomic mutable reactive cell, the leaf of the dependency
// graph.
type Signal struct {
	Node

	value  any
	equals func(a, b any) bool

	// subscribers are direct callbacks, delivered once per flush with
	// the final value.
	subscribers []*Callback
}

// Callback is a direct subscription to a source's value.
type Callback struct {
	fn func(any)
}

func (r *Runtime) NewSignal(initial any, opts SourceOpts) *Signal {
	s := &Signal{
		Node:  Node{id: nextID(), name: opts.Name},
		value: initial,
	}
	s.equals = opts.Equals

	return s
}

// SourceOpts configures a signal or computed node.
type SourceOpts struct {
	Name   string
	Equals func(a, b any) bool

	// Optional and Default configure the circular dependency recovery
	// policy of a computed (skip-with-default).
	Optional bool
	Default  *any
}

func (s *Signal) ensure(r *Runtime) {}

func (s *Signal) Read() any {
	r := GetRuntime()
	r.tracker.Track(r, s)

	return s.value
}

func (s *Signal) Peek() any {
	return s.value
}

// Write stores v if it differs under the equality predicate, bumps the
// version and notifies dependents. Storage is updated immediately even
// inside a batch; only notification is deferred to the flush.
func (s *Signal) Write(v any) {
	if s.eq(s.value, v) {
		return
	}

	s.value = v
	s.touch(GetRuntime())
}

// Update applies fn to the current value and writes the result.
func (s *Signal) Update(fn func(any) any) {
	s.Write(fn(s.value))
}

// Mutate applies fn to the value in place and notifies unconditionally.
// Used for container types where the reference does not change, so
// equality cannot be consulted.
func (s *Signal) Mutate(fn func(any) any) {
	s.value = fn(s.value)
	s.touch(GetRuntime())
}

func (s *Signal) touch(r *Runtime) {
	s.version++
	r.invalidate(&s.Node)
	if len(s.subscribers) > 0 {
		r.notifications.Enqueue(&s.Node, s.notify)
	}
	r.Schedule()
}

// Subscribe registers a direct callback, returning an unsubscribe func.
func (s *Signal) Subscribe(fn func(any)) func() {
	cb := &Callback{fn: fn}
	s.subscribers = append(s.subscribers, cb)

	return func() {
		for i, c := range s.subscribers {
			if c == cb {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notify delivers the current value to every direct subscriber. Runs at
// flush time; a panicking callback is reported, not propagated.
func (s *Signal) notify() {
	value := s.value
	subs := make([]*Callback, len(s.subscribers))
	copy(subs, s.subscribers)

	for _, cb := range subs {
		func() {
			defer func() {
				if v := recover(); v != nil {
					sinkError("subscriber panicked", v)
				}
			}()
			cb.fn(value)
		}()
	}
}

func (s *Signal) eq(a, b any) bool {
	if s.equals != nil {
		return s.equals(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for comparable values and reflect.DeepEqual for
// the rest.
func defaultEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
