package relay

import (
	"sync"
	"time"
)

// defaultPollInterval bounds how long Runner's consumer goroutine blocks in
// EventQueue.WaitFor between drain passes.
const defaultPollInterval = 100 * time.Millisecond

// RunnerOption configures a Runner.
type RunnerOption[K comparable, T any] func(*Runner[K, T])

// WithPollInterval sets the timeout Runner passes to EventQueue.WaitFor on
// each iteration of its consumer loop.
func WithPollInterval[K comparable, T any](d time.Duration) RunnerOption[K, T] {
	return func(r *Runner[K, T]) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithPanicHandler installs a handler invoked with the recovered value
// whenever a drain pass panics. Without one, Runner silently recovers and
// keeps its consumer goroutine alive — the core EventQueue.Process still
// propagates the panic to whatever called it directly; Runner's recovery
// only protects its own background goroutine, since nothing in user code
// is there to catch it.
func WithPanicHandler[K comparable, T any](fn func(recovered any)) RunnerOption[K, T] {
	return func(r *Runner[K, T]) { r.onPanic = fn }
}

// Runner drives an EventQueue's drain loop on a dedicated goroutine, so
// callers don't have to write their own WaitFor/Process loop. It is an
// optional convenience over the core EventQueue, not a requirement:
// nothing stops a caller from calling Process or ProcessQueueWith
// directly on its own schedule instead.
type Runner[K comparable, T any] struct {
	queue        *EventQueue[K, T]
	pollInterval time.Duration
	onPanic      func(recovered any)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner creates a Runner over queue. Start must be called to begin
// draining.
func NewRunner[K comparable, T any](queue *EventQueue[K, T], opts ...RunnerOption[K, T]) *Runner[K, T] {
	r := &Runner[K, T]{
		queue:        queue,
		pollInterval: defaultPollInterval,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the consumer goroutine. Start must not be called more
// than once on the same Runner.
func (r *Runner[K, T]) Start() {
	r.wg.Add(1)
	go r.run()
}

// run is the consumer goroutine body: wait for work or the poll interval
// to elapse, drain whatever is staged, repeat, until Stop is called.
func (r *Runner[K, T]) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			r.drain()
			return
		default:
		}
		if r.queue.WaitFor(r.pollInterval) {
			r.drain()
		}
	}
}

// drain runs one EventQueue.Process pass with panic containment, so a
// handler panic cannot kill the consumer goroutine out from under the
// caller.
func (r *Runner[K, T]) drain() {
	defer func() {
		if rec := recover(); rec != nil && r.onPanic != nil {
			r.onPanic(rec)
		}
	}()
	r.queue.Process()
}

// Stop signals the consumer goroutine to drain whatever remains staged
// and exit, then waits for it to do so. Stop is safe to call more than
// once; only the first call has an effect.
func (r *Runner[K, T]) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
}
