package internal

// DirtyHeap is a priority queue of invalidated nodes bucketed by height.
// Draining it yields nodes in non-decreasing dependency depth, which is
// what collapses diamond dependencies into a single re-run.
type DirtyHeap struct {
	min int
	max int

	buckets [][]Subscriber

	size int
}

func NewHeap() *DirtyHeap {
	return &DirtyHeap{
		buckets: make([][]Subscriber, 64),
	}
}

func (h *DirtyHeap) Len() int { return h.size }

func (h *DirtyHeap) Insert(sub Subscriber) {
	nd := sub.base()
	if nd.flags.Has(FlagInHeap) {
		return
	}
	nd.flags.Set(FlagInHeap)

	height := nd.height
	for len(h.buckets) <= height {
		h.buckets = append(h.buckets, nil)
	}

	h.buckets[height] = append(h.buckets[height], sub)
	h.size++

	if height > h.max {
		h.max = height
	}
	if height < h.min {
		h.min = height
	}
}

func (h *DirtyHeap) Remove(sub Subscriber) {
	nd := sub.base()
	if !nd.flags.Has(FlagInHeap) {
		return
	}
	nd.flags.Clear(FlagInHeap)

	height := nd.height
	if height >= len(h.buckets) {
		height = 0
	}

	bucket := h.buckets[height]
	for i, s := range bucket {
		if s == sub {
			h.buckets[height] = append(bucket[:i], bucket[i+1:]...)
			h.size--
			return
		}
	}

	// Height may have grown while queued; fall back to a full scan.
	for hi := range h.buckets {
		for i, s := range h.buckets[hi] {
			if s == sub {
				h.buckets[hi] = append(h.buckets[hi][:i], h.buckets[hi][i+1:]...)
				h.size--
				return
			}
		}
	}
}

// Drain processes every queued node in height order, leaving the heap
// empty. Nodes inserted at or below the current height during processing
// are picked up by the caller's outer loop, not this pass.
func (h *DirtyHeap) Drain(process func(Subscriber)) {
	for h.min = 0; h.min <= h.max; h.min++ {
		for len(h.buckets[h.min]) > 0 {
			sub := h.buckets[h.min][0]
			h.Remove(sub)
			process(sub)
		}
	}

	h.min = 0
	h.max = 0
}
