package relay

import "sync"

// mutex is the minimal locking contract CallbackList, EventDispatcher,
// and EventQueue depend on, letting a Threading choice swap the
// implementation without touching call sites.
type mutex interface {
	Lock()
	Unlock()
}

// sharedMutex adds the reader/writer split EventDispatcher needs to let
// concurrent Dispatch calls proceed while only key-insertion takes the
// exclusive side.
type sharedMutex interface {
	mutex
	RLock()
	RUnlock()
}

// noopMutex implements mutex and sharedMutex with no synchronization at
// all, for ThreadingSingle: callers who guarantee single-threaded access
// and want to shed the (already cheap) lock overhead entirely.
type noopMutex struct{}

func (*noopMutex) Lock()          {}
func (*noopMutex) Unlock()        {}
func (*noopMutex) RLock()         {}
func (*noopMutex) RUnlock()       {}
func (*noopMutex) TryLock() bool  { return true }
func (*noopMutex) TryRLock() bool { return true }

// spinSharedMutex adapts SpinLock to sharedMutex by treating every
// acquisition as exclusive. SpinLock has no reader/writer distinction, so
// selecting ThreadingSpin for EventDispatcher trades read-side
// concurrency for a cheaper, allocation-free lock — the right call when
// the critical section is always short, which is the only case
// ThreadingSpin is meant for in the first place.
type spinSharedMutex struct {
	SpinLock
}

func (s *spinSharedMutex) RLock()   { s.Lock() }
func (s *spinSharedMutex) RUnlock() { s.Unlock() }

func newMutex(t Threading) mutex {
	switch t {
	case ThreadingSpin:
		return &SpinLock{}
	case ThreadingSingle:
		return &noopMutex{}
	default:
		return &sync.Mutex{}
	}
}

func newSharedMutex(t Threading) sharedMutex {
	switch t {
	case ThreadingSpin:
		return &spinSharedMutex{}
	case ThreadingSingle:
		return &noopMutex{}
	default:
		return &sync.RWMutex{}
	}
}
