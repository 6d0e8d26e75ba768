package runtime

import (
	"sync"
)

// SubQueue decouples a producer from a slow subscriber. Enqueue never blocks;
// events are held in an unbounded queue and handed to the subscriber channel
// by a dedicated dispatcher goroutine.
type SubQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	keep   func(T) bool
	closed bool
	done   chan struct{}

	outCh  chan T // consumer reads from this
	paused bool   // gate dispatch until snapshot queued
}

func NewSubQueue[T any](outBuf int) *SubQueue[T] {
	sq := &SubQueue[T]{
		outCh:  make(chan T, outBuf),
		done:   make(chan struct{}),
		paused: true,
	}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.dispatch()
	return sq
}

// Channel exposed to subscriber. It is closed once the queue is closed.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends to the in-memory queue and wakes dispatcher.
func (sq *SubQueue[T]) Enqueue(ev T) {
	sq.mu.Lock()
	if !sq.closed && (sq.keep == nil || sq.keep(ev)) {
		sq.queue = append(sq.queue, ev)
		sq.cond.Signal()
	}
	sq.mu.Unlock()
}

// Pause/Resume gates dispatching (used to hold back live events during snapshot).
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Close stops the dispatcher and closes the out channel. Undelivered events
// are discarded. Close may be called more than once.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	if !sq.closed {
		sq.closed = true
		sq.queue = nil
		close(sq.done)
		sq.cond.Broadcast()
	}
	sq.mu.Unlock()
}

func (sq *SubQueue[T]) dispatch() {
	defer close(sq.outCh)
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.queue) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.mu.Unlock()
			return
		}
		ev := sq.queue[0]
		var zero T
		sq.queue[0] = zero
		sq.queue = sq.queue[1:]
		sq.mu.Unlock()

		// Blocks only on the channel buffer / reader, or until closed.
		select {
		case sq.outCh <- ev:
		case <-sq.done:
			return
		}
	}
}
