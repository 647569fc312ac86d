package relay

import (
	"runtime"
	"sync"
	"time"
)

// cell holds one enqueued (key, payload) pair plus the staging/free-list
// link. cell is the unit the Pool allocator manages when a queue is
// configured with WithQueueList.
type cell[K comparable, T any] struct {
	key     K
	payload T
	next    *cell[K, T]
}

// waitSpinIterations and waitYieldIterations bound the spin and yield
// phases of the adaptive waiter before it falls back to blocking on the
// condition variable.
const (
	waitSpinIterations  = 128
	waitYieldIterations = 16
)

// yieldProcessor cooperatively yields the calling goroutine to the Go
// scheduler. It is the portable stand-in for a thread yield syscall in
// WaitFor's escalation between spinning and blocking.
func yieldProcessor() {
	runtime.Gosched()
}

// EventQueue layers asynchrony over an EventDispatcher: producers Enqueue
// (key, payload) pairs onto a staging list; a single consumer goroutine
// periodically drains the staging list and dispatches each pair.
//
// EventQueue is safe for any number of concurrent producers. Process,
// ProcessOne, ProcessQueueWith, and ProcessOneWith must not be called
// concurrently with each other on the same queue — draining is
// single-threaded by contract.
type EventQueue[K comparable, T any] struct {
	disp *EventDispatcher[K, T]

	stagingMu   mutex
	_           cacheLinePad
	stagingHead *cell[K, T]
	stagingTail *cell[K, T]

	freeMu   mutex
	_        cacheLinePad
	freeHead *cell[K, T]

	cond    *sync.Cond
	condMu  sync.Mutex
	_       cacheLinePad
	work    int64
	waiters int64

	pool     *Pool[cell[K, T]]
	usesPool bool
}

// NewEventQueue creates an EventQueue that dispatches drained cells to
// disp. By default cells are plain heap allocations reused through a
// simple free list; pass WithQueueList to back the free list with the
// slab Pool allocator instead.
func NewEventQueue[K comparable, T any](disp *EventDispatcher[K, T], opts ...Option) *EventQueue[K, T] {
	p := buildPolicy(opts)

	q := &EventQueue[K, T]{
		disp:      disp,
		stagingMu: newMutex(p.threading),
		freeMu:    newMutex(p.threading),
		usesPool:  p.queuePool,
	}
	q.cond = sync.NewCond(&q.condMu)
	if p.queuePool {
		q.pool = NewPool[cell[K, T]](p.queueCapacity, p.maxSlabs)
	}
	return q
}

// acquireCell tries the free-list mutex without blocking; on success with
// a non-empty free list it splices one cell out, otherwise it allocates
// fresh. A TryLock that fails falls through to a plain allocation instead
// of contending with the consumer for the free list. A pool-backed queue
// skips the free list and allocates from the Pool directly.
func (q *EventQueue[K, T]) acquireCell() (*cell[K, T], error) {
	if q.usesPool {
		return q.allocateCell()
	}

	if tl, ok := q.freeMu.(interface{ TryLock() bool }); ok {
		if tl.TryLock() {
			c := q.freeHead
			if c != nil {
				q.freeHead = c.next
			}
			q.freeMu.Unlock()
			if c != nil {
				c.next = nil
				return c, nil
			}
			return q.allocateCell()
		}
		return q.allocateCell()
	}

	// A mutex with no TryLock method (none of the built-in lock families
	// lacks one) falls back to an unconditional acquisition of the free list.
	q.freeMu.Lock()
	c := q.freeHead
	if c != nil {
		q.freeHead = c.next
	}
	q.freeMu.Unlock()
	if c != nil {
		c.next = nil
		return c, nil
	}
	return q.allocateCell()
}

func (q *EventQueue[K, T]) allocateCell() (*cell[K, T], error) {
	if q.usesPool {
		c, err := q.pool.Allocate()
		if err != nil {
			return nil, err
		}
		c.next = nil
		return c, nil
	}
	return &cell[K, T]{}, nil
}

// releaseAll returns an entire local list (head..tail) for reuse. A plain
// queue puts it back on the free list in a single splice; a pool-backed
// queue hands each cell back to the Pool one at a time.
func (q *EventQueue[K, T]) releaseAll(head, tail *cell[K, T]) {
	if head == nil {
		return
	}
	if q.usesPool {
		for c := head; c != nil; {
			next := c.next
			var zero T
			c.payload = zero
			q.pool.Deallocate(c)
			c = next
		}
		return
	}
	q.freeMu.Lock()
	tail.next = q.freeHead
	q.freeHead = head
	q.freeMu.Unlock()
}

// Enqueue appends (key, payload) to the staging list and wakes a blocked
// consumer, if any. It returns ErrAllocationFailed only when the queue is
// configured with a bounded pool-backed cell allocator (WithMaxSlabs) and
// that bound has been reached.
func (q *EventQueue[K, T]) Enqueue(key K, payload T) error {
	c, err := q.acquireCell()
	if err != nil {
		return err
	}
	c.key = key
	c.payload = payload
	c.next = nil

	q.stagingMu.Lock()
	if q.stagingTail != nil {
		q.stagingTail.next = c
	} else {
		q.stagingHead = c
	}
	q.stagingTail = c
	q.stagingMu.Unlock()

	q.condMu.Lock()
	q.work++
	waiting := q.waiters > 0
	q.condMu.Unlock()
	if waiting {
		q.cond.Broadcast()
	}
	return nil
}

// splice atomically removes the entire staging list and returns its head
// and tail, or (nil, nil) if the staging list was empty.
func (q *EventQueue[K, T]) splice() (*cell[K, T], *cell[K, T]) {
	q.stagingMu.Lock()
	head, tail := q.stagingHead, q.stagingTail
	q.stagingHead, q.stagingTail = nil, nil
	q.stagingMu.Unlock()
	return head, tail
}

// spliceOne removes and returns only the first cell of the staging list,
// or nil if it is empty.
func (q *EventQueue[K, T]) spliceOne() *cell[K, T] {
	q.stagingMu.Lock()
	c := q.stagingHead
	if c != nil {
		q.stagingHead = c.next
		if q.stagingHead == nil {
			q.stagingTail = nil
		}
		c.next = nil
	}
	q.stagingMu.Unlock()
	return c
}

// Process drains every cell currently staged and dispatches each one, in
// enqueue order, through the queue's EventDispatcher. A panicking handler
// aborts the drain: cells already dispatched are gone; the remainder of
// the local list — including the cell whose handler panicked — is
// returned to the free list before the panic continues to propagate.
func (q *EventQueue[K, T]) Process() {
	head, tail := q.splice()
	if head == nil {
		return
	}
	q.drain(head, tail, func(c *cell[K, T]) { q.disp.Dispatch(c.key, c.payload) })
}

// ProcessOne drains and dispatches at most one staged cell. It reports
// whether a cell was drained.
func (q *EventQueue[K, T]) ProcessOne() bool {
	c := q.spliceOne()
	if c == nil {
		return false
	}
	q.drain(c, c, func(c *cell[K, T]) { q.disp.Dispatch(c.key, c.payload) })
	return true
}

// ProcessQueueWith drains every staged cell and invokes visit(key,
// payload) directly for each one, bypassing the dispatcher entirely: no
// map lookup, no shared lock, no CallbackList traversal, no indirect call
// through a type-erased handler. It reports whether any cell was drained.
func (q *EventQueue[K, T]) ProcessQueueWith(visit func(key K, payload T)) bool {
	head, tail := q.splice()
	if head == nil {
		return false
	}
	q.drain(head, tail, func(c *cell[K, T]) { visit(c.key, c.payload) })
	return true
}

// ProcessOneWith drains and visits at most one staged cell, bypassing the
// dispatcher. It reports whether a cell was drained.
func (q *EventQueue[K, T]) ProcessOneWith(visit func(key K, payload T)) bool {
	c := q.spliceOne()
	if c == nil {
		return false
	}
	q.drain(c, c, func(c *cell[K, T]) { visit(c.key, c.payload) })
	return true
}

// drain walks the local list head..tail, invoking fn on each cell, and
// accounts for the work counter and free-list return even if fn panics.
// The work counter is decremented by the list's full length regardless of
// how far the walk got: every cell from head..tail is returned to the
// free list by the deferred cleanup below, so every one of them must also
// leave the pending count.
func (q *EventQueue[K, T]) drain(head, tail *cell[K, T], fn func(*cell[K, T])) {
	total := int64(0)
	for c := head; c != nil; c = c.next {
		total++
	}
	defer func() {
		q.condMu.Lock()
		q.work -= total
		q.condMu.Unlock()
		q.releaseAll(head, tail)
	}()

	for cursor := head; cursor != nil; cursor = cursor.next {
		fn(cursor)
	}
}

// hasWork reports whether the queue currently has at least one cell
// staged, under the condition variable's lock.
func (q *EventQueue[K, T]) hasWork() bool {
	q.condMu.Lock()
	defer q.condMu.Unlock()
	return q.work > 0
}

// spinThenYield runs the spin phase (a bounded number of CPU pause/yield
// hints) followed by the yield phase (a bounded number of scheduler
// yields), returning true as soon as work appears without ever touching
// the condition variable. Most enqueue-to-drain latencies are shorter
// than this escalation, so WaitFor/Wait usually return here without
// blocking at all.
func (q *EventQueue[K, T]) spinThenYield() bool {
	for i := 0; i < waitSpinIterations; i++ {
		procyieldHint(4)
		if q.hasWork() {
			return true
		}
	}
	for i := 0; i < waitYieldIterations; i++ {
		yieldProcessor()
		if q.hasWork() {
			return true
		}
	}
	return false
}

// WaitFor blocks until the queue has at least one cell staged or timeout
// elapses, whichever comes first, returning true if work became
// available.
func (q *EventQueue[K, T]) WaitFor(timeout time.Duration) bool {
	if q.hasWork() || q.spinThenYield() {
		return true
	}

	timedOut := false
	timer := time.AfterFunc(timeout, func() {
		q.condMu.Lock()
		timedOut = true
		q.cond.Broadcast()
		q.condMu.Unlock()
	})
	defer timer.Stop()

	q.condMu.Lock()
	q.waiters++
	for q.work == 0 && !timedOut {
		q.cond.Wait()
	}
	q.waiters--
	result := q.work > 0
	q.condMu.Unlock()
	return result
}

// Wait blocks until the queue has at least one cell staged, with no
// timeout.
func (q *EventQueue[K, T]) Wait() {
	if q.hasWork() || q.spinThenYield() {
		return
	}

	q.condMu.Lock()
	q.waiters++
	for q.work == 0 {
		q.cond.Wait()
	}
	q.waiters--
	q.condMu.Unlock()
}

// Pending returns the number of cells currently staged and not yet
// drained.
func (q *EventQueue[K, T]) Pending() int64 {
	q.condMu.Lock()
	defer q.condMu.Unlock()
	return q.work
}
