package relay

// Threading selects the mutex family used by a dispatcher or queue's
// internal locks.
type Threading int

const (
	// ThreadingMutex uses a standard sync.Mutex/sync.RWMutex. The right
	// default for moderate contention and sections that may briefly block.
	ThreadingMutex Threading = iota
	// ThreadingSpin uses SpinLock for critical sections expected to be a
	// few hundred cycles or shorter. Never select this for a lock that
	// guards a call into user code that might itself block.
	ThreadingSpin
	// ThreadingSingle elides locking entirely. Only safe when the caller
	// guarantees single-threaded access to the whole structure.
	ThreadingSingle
)

// ArgumentPassing selects whether a dispatcher's EventDispatcher.
// AppendKeyedListener is available to register handlers that also receive
// the dispatch key, or whether handlers are restricted to the payload
// alone.
type ArgumentPassing int

const (
	// ArgumentPassingAutoDetect permits AppendKeyedListener. A handler can
	// opt into seeing the key by registering through AppendKeyedListener,
	// or ignore it by registering through the plain AppendListener; both
	// are available, and the caller's choice of registration method is
	// the "detection."
	ArgumentPassingAutoDetect ArgumentPassing = iota
	// ArgumentPassingIncludeEvent also permits AppendKeyedListener, for
	// callers who want to be explicit that key-passing handlers are
	// expected on this dispatcher.
	ArgumentPassingIncludeEvent
	// ArgumentPassingExcludeEvent disables AppendKeyedListener: calling it
	// on a dispatcher built with this policy panics. Use this to enforce
	// that no handler on this dispatcher depends on the dispatch key.
	ArgumentPassingExcludeEvent
)

// Policy is the configuration bundle shared by NewEventDispatcher,
// NewOrderedEventDispatcher, and NewEventQueue, playing the role eventpp's
// template policy classes (GeneralThreading, PoolQueueList, ...) play as
// compile-time template parameters, expressed here as runtime-selected
// strategies instead.
type Policy struct {
	threading       Threading
	argumentPassing ArgumentPassing
	queuePool       bool
	queueCapacity   int
	maxSlabs        int
}

// defaultPolicy matches eventpp's default GeneralThreading: a standard
// mutex, auto-detected argument passing, and a plain (non-pooled) cell
// allocator.
func defaultPolicy() Policy {
	return Policy{
		threading:       ThreadingMutex,
		argumentPassing: ArgumentPassingAutoDetect,
		queuePool:       false,
		queueCapacity:   DefaultSlabCapacity,
	}
}

// Option configures a Policy. Options compose left to right.
type Option func(*Policy)

// WithThreading selects the mutex family.
func WithThreading(t Threading) Option {
	return func(p *Policy) { p.threading = t }
}

// WithArgumentPassing selects whether the dispatch key reaches handlers.
func WithArgumentPassing(a ArgumentPassing) Option {
	return func(p *Policy) { p.argumentPassing = a }
}

// WithQueueList selects the pool-backed cell allocator for an EventQueue,
// with the given slab capacity, in place of the default plain heap
// allocation per cell. Mirrors eventpp's PoolQueueList[T, Capacity] policy
// alias.
func WithQueueList(slabCapacity int) Option {
	return func(p *Policy) {
		p.queuePool = true
		if slabCapacity > 0 {
			p.queueCapacity = slabCapacity
		}
	}
}

// WithMaxSlabs bounds the pool-backed cell allocator to at most n slabs
// (0, the default, means unbounded growth). Exceeding the bound surfaces
// ErrAllocationFailed from EventQueue.Enqueue.
func WithMaxSlabs(n int) Option {
	return func(p *Policy) { p.maxSlabs = n }
}

// HighPerf returns a preset option bundle: the back-off spin lock as the
// mutex and a pool-backed cell allocator sized at DefaultSlabCapacity. It
// is the recommended starting point for high-contention
// multi-producer/single-consumer workloads, matching eventpp's
// HighPerfPolicy.
func HighPerf() []Option {
	return []Option{
		WithThreading(ThreadingSpin),
		WithQueueList(DefaultSlabCapacity),
	}
}

func buildPolicy(opts []Option) Policy {
	p := defaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
