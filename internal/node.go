package internal

import "sync/atomic"

var lastID uint64

func nextID() uint64 {
	return atomic.AddUint64(&lastID, 1)
}

// Node is the common state embedded in every graph participant.
type Node struct {
	id   uint64
	name string

	flags Flags

	// height is the length of the longest path from any root signal,
	// maintained when edges are created. The dirty heap drains in
	// non-decreasing height order.
	height int

	// version increments whenever the node's observable value changes.
	// Dependency links record the version they last read so a Check
	// node can tell whether a recompute is actually needed.
	version uint64

	deps []Dep
	subs []Subscriber
}

// Dep is a dependency edge stamped with the version observed at read time.
type Dep struct {
	Source  Source
	Version uint64
}

// Source is anything a computation can read: a signal or a computed.
type Source interface {
	base() *Node

	// ensure makes the source's value current (no-op for signals).
	ensure(r *Runtime)
}

// Subscriber is anything that reacts to a source changing: a computed
// or an effect.
type Subscriber interface {
	base() *Node

	// observed reports whether the node must be refreshed during flush
	// (effects always, computeds only when directly subscribed to).
	observed() bool
}

func (n *Node) base() *Node { return n }

// Name returns the node's debug name. Empty unless one was configured.
func (n *Node) Name() string { return n.name }

func (n *Node) ID() uint64 { return n.id }

// link registers a bidirectional edge between sub and src, stamping the
// dependency with src's current version. Linking the same pair twice in
// one run only refreshes the stamp.
func (r *Runtime) link(sub Subscriber, src Source) {
	nd := sub.base()
	sn := src.base()
	if nd == sn {
		return
	}

	for i := range nd.deps {
		if nd.deps[i].Source == src {
			nd.deps[i].Version = sn.version
			return
		}
	}

	nd.deps = append(nd.deps, Dep{Source: src, Version: sn.version})
	sn.subs = append(sn.subs, sub)

	if sn.height >= nd.height {
		nd.height = sn.height + 1
	}
}

// clearDeps removes every dependency edge of sub, symmetrically pruning
// the reverse edges. Called before each re-run and on disposal.
func (r *Runtime) clearDeps(sub Subscriber) {
	nd := sub.base()
	for i := range nd.deps {
		nd.deps[i].Source.base().removeSub(sub)
		nd.deps[i].Source = nil
	}
	nd.deps = nd.deps[:0]
}

func (n *Node) removeSub(sub Subscriber) {
	for i, s := range n.subs {
		if s == sub {
			n.subs[i] = n.subs[len(n.subs)-1]
			n.subs[len(n.subs)-1] = nil
			n.subs = n.subs[:len(n.subs)-1]
			return
		}
	}
}

// invalidate marks every dependent of n: direct dependents Dirty,
// transitive ones Check. Marking is idempotent until the next flush;
// observed nodes are queued in the dirty heap.
func (r *Runtime) invalidate(n *Node) {
	for _, sub := range n.subs {
		r.mark(sub, FlagDirty)
	}
}

func (r *Runtime) mark(sub Subscriber, state Flags) {
	nd := sub.base()
	if nd.flags.Has(FlagDisposed) {
		return
	}

	already := nd.flags.Has(FlagCheck | FlagDirty)
	nd.flags.Set(state)
	if already {
		return
	}

	if sub.observed() {
		r.heap.Insert(sub)
	}

	for _, s := range nd.subs {
		r.mark(s, FlagCheck)
	}
}

// needsRun resolves a Check flag by pulling dependencies in order and
// comparing their versions against the recorded stamps. Reports whether
// the node must actually re-run.
func (r *Runtime) needsRun(sub Subscriber) bool {
	nd := sub.base()
	if nd.flags.Has(FlagDisposed) {
		return false
	}
	if nd.flags.Has(FlagDirty) {
		return true
	}
	if !nd.flags.Has(FlagCheck) {
		return false
	}

	for i := range nd.deps {
		d := &nd.deps[i]
		d.Source.ensure(r)
		if d.Source.base().version != d.Version {
			return true
		}
	}

	nd.flags.Clear(FlagCheck)
	return false
}
