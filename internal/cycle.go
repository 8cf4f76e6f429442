package internal

import (
	"fmt"
	"strings"
)

// CyclePolicy selects how a detected circular dependency is recovered
// when the node itself declares no default value.
type CyclePolicy int

const (
	// CyclePanic raises a *CircularDependencyError naming the cycle.
	CyclePanic CyclePolicy = iota

	// CycleLastValue logs the cycle and hands out the last cached value.
	CycleLastValue
)

// CircularDependencyError reports that evaluating a computed re-entered
// itself, directly or through a mutual cycle.
type CircularDependencyError struct {
	// Cycle lists the nodes on the cycle, entry point first.
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// CycleResolver tracks the stack of computeds currently being entered.
// Enter/Exit must pair exactly; callers exit via defer so the stack
// unwinds even on panic.
type CycleResolver struct {
	stack  []*Computed
	policy CyclePolicy
}

func NewCycleResolver() *CycleResolver {
	return &CycleResolver{}
}

// Enter pushes c and reports whether evaluation may proceed. A node
// already computing is a cycle; recovery follows the node's own
// default-value configuration, then the global policy.
func (cr *CycleResolver) Enter(c *Computed) bool {
	if !c.flags.Has(FlagComputing) {
		cr.stack = append(cr.stack, c)
		return true
	}

	countCycle()
	cycle := cr.pathFrom(c)

	if c.optional || c.defaultVal != nil {
		// Skip: adopt the default and mark not-stale so dependents see
		// a settled node.
		c.flags.Clear(FlagDirty | FlagCheck)
		return false
	}

	if cr.policy == CycleLastValue {
		sinkWarn("circular dependency, returning last value", "cycle", strings.Join(cycle, " -> "))
		return false
	}

	panic(&CircularDependencyError{Cycle: cycle})
}

// Exit pops c. Must be called exactly once per successful Enter.
func (cr *CycleResolver) Exit(c *Computed) {
	for i := len(cr.stack) - 1; i >= 0; i-- {
		if cr.stack[i] == c {
			cr.stack = append(cr.stack[:i], cr.stack[i+1:]...)
			return
		}
	}
}

// pathFrom names the cycle starting at the first occurrence of c on the
// stack.
func (cr *CycleResolver) pathFrom(c *Computed) []string {
	names := []string{}

	start := 0
	for i, n := range cr.stack {
		if n == c {
			start = i
			break
		}
	}
	for _, n := range cr.stack[start:] {
		names = append(names, nodeName(&n.Node))
	}
	names = append(names, nodeName(&c.Node))

	return names
}

func nodeName(n *Node) string {
	if n.name != "" {
		return n.name
	}
	return fmt.Sprintf("computed#%d", n.id)
}
