// Package relay provides three composable in-process event primitives — a
// callback list, a synchronous event dispatcher keyed by an event
// identifier, and an asynchronous event queue — plus the concurrency and
// memory primitives that make them fast under contention.
//
// The three primitives compose bottom-up:
//
//	CallbackList    — ordered, thread-safe handler collection
//	EventDispatcher — a map of event identifier to CallbackList
//	EventQueue      — an asynchronous publish/drain buffer over a dispatcher
//
// A SpinLock (selectable for all three via WithThreading) and a
// slab-backed Pool allocator (backing EventQueue cells via WithQueueList)
// sit underneath and are exported for callers assembling their own policy
// bundle.
//
// Quick example:
//
//	d := relay.NewEventDispatcher[string, int]()
//	d.AppendListener("order.created", func(orderID int) {
//	    fmt.Println("created", orderID)
//	})
//	d.Dispatch("order.created", 123)
//
// Asynchronous variant:
//
//	q := relay.NewEventQueue[string, int](d)
//	q.Enqueue("order.created", 123)
//	q.Process() // runs on the consumer's own goroutine
//
// See https://github.com/zoobzio/relay for the full design notes.
package relay

// Handler is an invocable value with a fixed parameter type, stored by
// value inside a CallbackList node. T is typically a struct aggregating a
// handler's arguments when more than one value must be passed.
type Handler[T any] func(T)

// Signal is a string event identifier, the key type used by the
// package-level default dispatcher and queue in default.go. Callers
// assembling their own EventDispatcher/EventQueue are free to use any
// comparable key type; Signal is only the default instance's choice.
type Signal string

// Visitor inspects a CallbackList's enabled handlers without invoking
// them. Returning false stops the walk early.
type Visitor[T any] func(h Handler[T]) bool
