package internal

// Context is an owner-scoped value: Set stores it on the active owner,
// Value walks the owner chain and falls back to the initial value.
type Context struct {
	initial any
}

func (r *Runtime) NewContext(initial any) *Context {
	return &Context{initial: initial}
}

func (c *Context) Value() any {
	r := GetRuntime()

	for owner := r.tracker.CurrentOwner(); owner != nil; owner = owner.parent {
		if owner.context != nil {
			if v, ok := owner.context[c]; ok {
				return v
			}
		}
	}

	return c.initial
}

func (c *Context) Set(value any) {
	owner := GetRuntime().tracker.CurrentOwner()
	if owner == nil {
		return
	}

	if owner.context == nil {
		owner.context = make(map[any]any)
	}
	owner.context[c] = value
}
