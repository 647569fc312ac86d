package relay

import "sync"

// Mixin is an optional behaviour trait that wraps an EventDispatcher's
// public operations. Attach is called once, when the mixin is installed
// via EventDispatcher.Use. Exporting Attach lets a caller outside this
// package implement its own Mixin, not just the ObserveAll trait shipped
// here.
type Mixin[K comparable, T any] interface {
	Attach(d *EventDispatcher[K, T])
}

// ObserveAll is a Mixin that registers handler against every key the
// dispatcher currently has, and against every key created afterward. An
// optional whitelist restricts it to a fixed set of keys, whether they
// exist at attach time or are created later.
//
// ObserveAll hooks every existing key and stays attached to keys
// registered later by listening for dispatcher growth, rather than
// reaching into dispatcher internals directly.
type ObserveAll[K comparable, T any] struct {
	handler   Handler[T]
	whitelist map[K]struct{} // nil means no filtering: every key

	mu      sync.Mutex
	active  bool
	handles []ListenerHandle[K, T]
}

// NewObserveAll creates an ObserveAll mixin that invokes handler for
// every dispatch on every key (or, if keys is non-empty, only those
// keys), whether the key already exists or is created later.
func NewObserveAll[K comparable, T any](handler Handler[T], keys ...K) *ObserveAll[K, T] {
	o := &ObserveAll[K, T]{handler: handler, active: true}
	if len(keys) > 0 {
		o.whitelist = make(map[K]struct{}, len(keys))
		for _, k := range keys {
			o.whitelist[k] = struct{}{}
		}
	}
	return o
}

func (o *ObserveAll[K, T]) wants(key K) bool {
	if o.whitelist == nil {
		return true
	}
	_, ok := o.whitelist[key]
	return ok
}

// Attach backfills the handler onto every matching key already present
// on d, then installs a new-key hook so future matching keys are covered
// too, by wrapping AppendListener's key-creation path.
func (o *ObserveAll[K, T]) Attach(d *EventDispatcher[K, T]) {
	for _, key := range d.Keys() {
		if o.wants(key) {
			o.register(d, key)
		}
	}
	d.onNewKey(func(key K, _ *CallbackList[T]) {
		o.mu.Lock()
		active := o.active
		o.mu.Unlock()
		if active && o.wants(key) {
			o.register(d, key)
		}
	})
}

func (o *ObserveAll[K, T]) register(d *EventDispatcher[K, T], key K) {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	h := d.AppendListener(key, o.handler)

	o.mu.Lock()
	if o.active {
		o.handles = append(o.handles, h)
	} else {
		o.mu.Unlock()
		h.Close()
		return
	}
	o.mu.Unlock()
}

// Close removes every listener ObserveAll has registered so far and
// stops it from attaching to keys created afterward. Close is idempotent.
func (o *ObserveAll[K, T]) Close() {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	o.active = false
	handles := o.handles
	o.handles = nil
	o.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
}
