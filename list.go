package relay

import "sync/atomic"

// batchSize bounds how many nodes a single invoke/for_each traversal
// copies out of the list per mutex acquisition. A larger batch trades
// cache-line contention on the list mutex against holding strong
// references to more nodes than strictly necessary.
const batchSize = 8

// listNode is one handler registration. generation is set once at
// construction, under the owning CallbackList's mutex, and never written
// again, so concurrent unlocked reads of it are safe without
// synchronization. enabled is written by Remove and read by traversals
// running on other goroutines with no mutex held on the read side, so it
// is an atomic.Bool rather than a plain bool: this gives the read a
// happens-after edge on Remove's write instead of a data race.
//
// prev/next are mutated only under the list mutex; a traversal reads
// them only while holding that mutex too (see walk), so they need no
// atomic treatment.
type listNode[T any] struct {
	handler    Handler[T]
	generation uint64
	enabled    atomic.Bool

	prev *listNode[T]
	next *listNode[T]
}

// Handle is an opaque removal ticket returned by CallbackList.Append,
// Prepend, and Insert. A Handle is valid for the lifetime of the list it
// was issued by; removing an already-removed or never-registered Handle
// is a safe no-op that reports false.
type Handle[T any] struct {
	node *listNode[T]
}

// Valid reports whether h refers to a node that has not been removed.
// Valid is a snapshot: the node may be removed by another goroutine
// immediately after Valid returns.
func (h Handle[T]) Valid() bool {
	return h.node != nil && h.node.enabled.Load()
}

// Position selects where Insert places a new handler relative to an
// existing Handle.
type Position int

const (
	// Before inserts immediately ahead of the reference handle.
	Before Position = iota
	// After inserts immediately behind the reference handle.
	After
)

// CallbackList is an ordered, concurrent-safe collection of handlers of a
// single argument type T. It is the unkeyed building block beneath
// EventDispatcher: a dispatcher is a map of keys to CallbackLists.
//
// Append, Prepend, Insert, and Remove take the list mutex. Invoke and
// ForEach take the mutex only to snapshot a generation horizon and to
// copy short batches of node pointers; handler invocation itself happens
// outside the mutex.
type CallbackList[T any] struct {
	mu mutex

	head *listNode[T]
	tail *listNode[T]
	n    int

	nextGeneration uint64
}

// NewCallbackList creates an empty CallbackList. By default its internal
// lock is a standard sync.Mutex; pass WithThreading to select the spin
// lock or a no-op single-threaded stub instead.
func NewCallbackList[T any](opts ...Option) *CallbackList[T] {
	p := buildPolicy(opts)
	return &CallbackList[T]{mu: newMutex(p.threading)}
}

// Append inserts handler at the tail and returns a Handle for later
// removal.
func (l *CallbackList[T]) Append(handler Handler[T]) Handle[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	node := l.newNode(handler)
	node.prev = l.tail
	if l.tail != nil {
		l.tail.next = node
	} else {
		l.head = node
	}
	l.tail = node
	l.n++
	return Handle[T]{node: node}
}

// Prepend inserts handler at the head and returns a Handle for later
// removal.
func (l *CallbackList[T]) Prepend(handler Handler[T]) Handle[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	node := l.newNode(handler)
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	} else {
		l.tail = node
	}
	l.head = node
	l.n++
	return Handle[T]{node: node}
}

// Insert places handler relative to ref. If ref is expired (already
// removed, or the zero Handle), Insert falls back to Append for pos ==
// After and Prepend for pos == Before.
func (l *CallbackList[T]) Insert(handler Handler[T], ref Handle[T], pos Position) Handle[T] {
	l.mu.Lock()

	refNode := ref.node
	if refNode == nil || !refNode.enabled.Load() {
		l.mu.Unlock()
		if pos == Before {
			return l.Prepend(handler)
		}
		return l.Append(handler)
	}
	defer l.mu.Unlock()

	node := l.newNode(handler)
	if pos == Before {
		node.prev = refNode.prev
		node.next = refNode
		if refNode.prev != nil {
			refNode.prev.next = node
		} else {
			l.head = node
		}
		refNode.prev = node
	} else {
		node.next = refNode.next
		node.prev = refNode
		if refNode.next != nil {
			refNode.next.prev = node
		} else {
			l.tail = node
		}
		refNode.next = node
	}
	l.n++
	return Handle[T]{node: node}
}

// Remove unlinks the node referenced by h. It returns false if h is the
// zero Handle or the node was already removed.
//
// Remove rewires the neighbours' links but deliberately leaves the
// removed node's own next pointer untouched, so an in-flight traversal
// that has already buffered this node can still follow it to whatever
// came after it at buffer time.
func (l *CallbackList[T]) Remove(h Handle[T]) bool {
	node := h.node
	if node == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !node.enabled.Load() {
		return false
	}
	node.enabled.Store(false)

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	l.n--
	return true
}

// Invoke calls every handler enabled at the moment Invoke started, in
// insertion order, with arg. Handlers appended during this call are not
// seen; handlers removed during this call before they are reached are
// skipped. A panicking handler propagates out of Invoke; handlers already
// called are not rolled back.
func (l *CallbackList[T]) Invoke(arg T) {
	l.walk(func(h Handler[T]) bool {
		h(arg)
		return true
	})
}

// ForEach walks every handler enabled at the moment ForEach started, in
// insertion order, passing each to visitor. visitor must not invoke the
// handler; it may only inspect it. Traversal stops early if visitor
// returns false.
func (l *CallbackList[T]) ForEach(visitor Visitor[T]) {
	l.walk(visitor)
}

// walk implements the shared generation-horizon, batched-copy traversal
// used by both Invoke and ForEach.
func (l *CallbackList[T]) walk(visit func(Handler[T]) bool) {
	l.mu.Lock()
	horizon := l.nextGeneration
	cursor := l.head
	l.mu.Unlock()

	var batch [batchSize]*listNode[T]

	for cursor != nil {
		l.mu.Lock()
		count := 0
		n := cursor
		for n != nil && count < batchSize {
			batch[count] = n
			count++
			n = n.next
		}
		cursor = n
		l.mu.Unlock()

		if count == 0 {
			break
		}

		for i := 0; i < count; i++ {
			node := batch[i]
			if node.generation > horizon || !node.enabled.Load() {
				continue
			}
			if !visit(node.handler) {
				return
			}
		}
	}
}

// Empty reports whether the list currently has no handlers.
func (l *CallbackList[T]) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n == 0
}

// Size returns the current handler count.
func (l *CallbackList[T]) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func (l *CallbackList[T]) newNode(handler Handler[T]) *listNode[T] {
	l.nextGeneration++
	n := &listNode[T]{
		handler:    handler,
		generation: l.nextGeneration,
	}
	n.enabled.Store(true)
	return n
}
