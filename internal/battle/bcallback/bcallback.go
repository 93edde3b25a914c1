// Package bcallback holds the minimal callback shapes shared across battle
// component packages, so entity/status/action/animator can each queue work
// without importing one another just to share a function type. The
// scripting package is the only place these are constructed from a live VM
// handle (spec.md §4.9 / §9 "Scripting boundary").
package bcallback

// Void is a zero-argument callback, drained FIFO at documented points
// (spec.md §3 PendingCallback, §5 ordering guarantee (b)).
type Void func()

// Queue is a FIFO of Void callbacks. Every sub-phase that "drains callbacks"
// in spec.md §4 empties one of these before returning.
type Queue struct {
	items []Void
}

func (q *Queue) Push(fn Void) {
	if fn != nil {
		q.items = append(q.items, fn)
	}
}

// Drain invokes every queued callback in insertion order and empties the
// queue. Safe to call when empty.
func (q *Queue) Drain() {
	// Callbacks may enqueue more callbacks (re-entrant scripts). Keep
	// draining until the queue is empty rather than snapshotting len() once,
	// matching "All callbacks drained before returning" (spec.md §3).
	for len(q.items) > 0 {
		items := q.items
		q.items = nil
		for _, fn := range items {
			fn()
		}
	}
}

func (q *Queue) Len() int { return len(q.items) }
