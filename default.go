package relay

import (
	"sync"

	"github.com/zoobzio/relay/args"
)

var (
	defaultDispatcher *EventDispatcher[Signal, *args.Set]
	defaultQueue      *EventQueue[Signal, *args.Set]
	defaultRunner     *Runner[Signal, *args.Set]
	defaultOnce       sync.Once
)

// defaultInstance lazily builds the process-wide default dispatcher,
// queue, and consumer goroutine on first use, keyed by Signal and
// carrying *args.Set payloads.
func defaultInstance() (*EventDispatcher[Signal, *args.Set], *EventQueue[Signal, *args.Set]) {
	defaultOnce.Do(func() {
		defaultDispatcher = NewEventDispatcher[Signal, *args.Set]()
		defaultQueue = NewEventQueue[Signal, *args.Set](defaultDispatcher)
		defaultRunner = NewRunner[Signal, *args.Set](defaultQueue)
		defaultRunner.Start()
	})
	return defaultDispatcher, defaultQueue
}

// Hook registers callback for signal on the default dispatcher. Returns a
// ListenerHandle that can be closed to unregister.
func Hook(signal Signal, callback Handler[*args.Set]) ListenerHandle[Signal, *args.Set] {
	d, _ := defaultInstance()
	return d.AppendListener(signal, callback)
}

// Emit enqueues an event on the default queue for asynchronous dispatch
// by the default instance's background consumer goroutine.
func Emit(signal Signal, entries ...args.Entry) error {
	_, q := defaultInstance()
	return q.Enqueue(signal, args.NewSet(entries...))
}

// Shutdown stops the default instance's consumer goroutine, draining
// whatever remains staged first. Shutdown is safe to call more than once.
func Shutdown() {
	defaultInstance()
	defaultRunner.Stop()
}
