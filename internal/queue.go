package internal

// NotifyQueue collects direct-subscriber deliveries during a batch,
// deduplicated by target node. Each target is notified once per flush
// with its final value.
type NotifyQueue struct {
	order []func()
	seen  map[*Node]struct{}
}

func NewNotifyQueue() *NotifyQueue {
	return &NotifyQueue{
		seen: make(map[*Node]struct{}),
	}
}

func (q *NotifyQueue) Enqueue(target *Node, deliver func()) {
	if _, ok := q.seen[target]; ok {
		return
	}
	q.seen[target] = struct{}{}
	q.order = append(q.order, deliver)
}

func (q *NotifyQueue) Len() int { return len(q.order) }

func (q *NotifyQueue) Deliver() {
	deliveries := q.order
	q.order = nil
	clear(q.seen)

	for _, deliver := range deliveries {
		deliver()
	}
}

// SettledQueue holds one-shot callbacks that run when the current flush
// fully quiesces, including effects chained off other effects.
type SettledQueue struct {
	callbacks []func()
}

func NewSettledQueue() *SettledQueue {
	return &SettledQueue{}
}

func (q *SettledQueue) Enqueue(fn func()) {
	q.callbacks = append(q.callbacks, fn)
}

func (q *SettledQueue) Len() int { return len(q.callbacks) }

func (q *SettledQueue) Run() {
	callbacks := q.callbacks
	q.callbacks = nil

	for _, cb := range callbacks {
		cb()
	}
}
