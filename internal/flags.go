package internal

// Flags represents the state of a reactive node.
type Flags uint8

const (
	FlagNone Flags = 0

	// FlagCheck marks a node that might need recomputation (verify deps first).
	FlagCheck Flags = 1 << iota
	// FlagDirty marks a node that definitely needs recomputation.
	FlagDirty
	// FlagInHeap marks a node currently queued in the dirty heap.
	FlagInHeap
	// FlagComputing marks a node whose body is currently executing.
	FlagComputing
	// FlagDisposed marks a permanently inert node.
	FlagDisposed
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

func (f *Flags) Set(flag Flags) {
	*f |= flag
}

func (f *Flags) Clear(flag Flags) {
	*f &^= flag
}
