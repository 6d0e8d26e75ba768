package runtime

import "slices"

// Preload puts snapshot ahead of everything already queued. Use while the
// queue is paused so the subscriber sees the snapshot before live events.
func (sq *SubQueue[T]) Preload(snapshot []T) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	if sq.closed {
		return
	}
	sq.queue = append(slices.Clone(snapshot), sq.queue...)
	sq.cond.Signal()
}

// SetFilter drops queued events for which keep returns false and applies the
// same test to every later Enqueue. Preload bypasses the filter, so set it
// first.
func (sq *SubQueue[T]) SetFilter(keep func(T) bool) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	sq.keep = keep
	sq.queue = slices.DeleteFunc(sq.queue, func(ev T) bool { return !keep(ev) })
}
