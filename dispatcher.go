package relay

// index abstracts the dispatcher's keyed storage so NewEventDispatcher and
// NewOrderedEventDispatcher can share every other line of EventDispatcher
// while choosing a hash map or an ordered map underneath. Callers own the
// key type's comparator (ordered) or hashability (unordered).
type index[K comparable, T any] interface {
	get(key K) (*CallbackList[T], bool)
	getOrCreate(key K) (*CallbackList[T], bool)
	has(key K) bool
	keys() []K
}

// hashIndex is the default, unordered index: a plain Go map. Inserting a
// new key never invalidates a *CallbackList obtained for an existing key,
// because the map stores pointers, not values.
type hashIndex[K comparable, T any] struct {
	m       map[K]*CallbackList[T]
	newList func() *CallbackList[T]
}

func newHashIndex[K comparable, T any](newList func() *CallbackList[T]) *hashIndex[K, T] {
	return &hashIndex[K, T]{m: make(map[K]*CallbackList[T]), newList: newList}
}

func (h *hashIndex[K, T]) get(key K) (*CallbackList[T], bool) {
	l, ok := h.m[key]
	return l, ok
}

func (h *hashIndex[K, T]) getOrCreate(key K) (*CallbackList[T], bool) {
	if l, ok := h.m[key]; ok {
		return l, false
	}
	l := h.newList()
	h.m[key] = l
	return l, true
}

func (h *hashIndex[K, T]) has(key K) bool {
	_, ok := h.m[key]
	return ok
}

func (h *hashIndex[K, T]) keys() []K {
	out := make([]K, 0, len(h.m))
	for k := range h.m {
		out = append(out, k)
	}
	return out
}

// orderedIndex is a sorted-slice index for callers who want deterministic
// key-order iteration or who supply a key type without a good hash but
// with a usable ordering. Lookup and insertion are O(log n) / O(n);
// dispatch and registration frequency, not raw map speed, dominates this
// structure's use.
type orderedIndex[K comparable, T any] struct {
	less    func(a, b K) bool
	sorted  []K
	lists   []*CallbackList[T]
	newList func() *CallbackList[T]
}

func newOrderedIndex[K comparable, T any](less func(a, b K) bool, newList func() *CallbackList[T]) *orderedIndex[K, T] {
	return &orderedIndex[K, T]{less: less, newList: newList}
}

// search returns the position key belongs at (via binary search) and
// whether it is already present there.
func (o *orderedIndex[K, T]) search(key K) (int, bool) {
	lo, hi := 0, len(o.sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if o.less(o.sorted[mid], key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(o.sorted) && !o.less(key, o.sorted[lo]) && !o.less(o.sorted[lo], key) {
		return lo, true
	}
	return lo, false
}

func (o *orderedIndex[K, T]) get(key K) (*CallbackList[T], bool) {
	i, found := o.search(key)
	if !found {
		return nil, false
	}
	return o.lists[i], true
}

func (o *orderedIndex[K, T]) getOrCreate(key K) (*CallbackList[T], bool) {
	i, found := o.search(key)
	if found {
		return o.lists[i], false
	}
	l := o.newList()
	o.sorted = append(o.sorted, key)
	o.lists = append(o.lists, nil)
	copy(o.sorted[i+1:], o.sorted[i:len(o.sorted)-1])
	copy(o.lists[i+1:], o.lists[i:len(o.lists)-1])
	o.sorted[i] = key
	o.lists[i] = l
	return l, true
}

func (o *orderedIndex[K, T]) has(key K) bool {
	_, found := o.search(key)
	return found
}

func (o *orderedIndex[K, T]) keys() []K {
	out := make([]K, len(o.sorted))
	copy(out, o.sorted)
	return out
}

// EventDispatcher is a keyed index of CallbackLists: a synchronous
// publish/subscribe point where handlers register against an event
// identifier and Dispatch fans out to every handler registered for that
// identifier at the time Dispatch was called.
//
// Lookup-and-dispatch takes the shared (read) side of an internal
// RWMutex; inserting a brand-new key takes the exclusive side only long
// enough to create that key's CallbackList. Once created, a key's
// CallbackList is never removed, so a *CallbackList obtained under the
// shared lock remains valid indefinitely.
type EventDispatcher[K comparable, T any] struct {
	mu              sharedMutex
	idx             index[K, T]
	newKeyHooks     []func(K, *CallbackList[T])
	argumentPassing ArgumentPassing
}

// NewEventDispatcher creates a dispatcher backed by an unordered (hash
// map) key index — the default, and the right choice unless callers need
// deterministic key iteration order. The Threading option selects the
// dispatcher's own lock family and is passed down to every per-key
// CallbackList it creates. WithArgumentPassing selects whether
// AppendKeyedListener is available on the resulting dispatcher.
func NewEventDispatcher[K comparable, T any](opts ...Option) *EventDispatcher[K, T] {
	p := buildPolicy(opts)
	newList := func() *CallbackList[T] { return NewCallbackList[T](opts...) }
	return &EventDispatcher[K, T]{
		mu:              newSharedMutex(p.threading),
		idx:             newHashIndex[K, T](newList),
		argumentPassing: p.argumentPassing,
	}
}

// NewOrderedEventDispatcher creates a dispatcher backed by a sorted-slice
// key index, iterated in the order defined by less. Use this when callers
// need to enumerate keys deterministically (see ObserveAll's key listing
// in mixin.go).
func NewOrderedEventDispatcher[K comparable, T any](less func(a, b K) bool, opts ...Option) *EventDispatcher[K, T] {
	p := buildPolicy(opts)
	newList := func() *CallbackList[T] { return NewCallbackList[T](opts...) }
	return &EventDispatcher[K, T]{
		mu:              newSharedMutex(p.threading),
		idx:             newOrderedIndex[K, T](less, newList),
		argumentPassing: p.argumentPassing,
	}
}

// AppendListener registers handler against key, creating key's
// CallbackList on first use, and returns a ListenerHandle that can later
// remove it. Lookup for an existing key proceeds under the shared lock;
// creating a new key briefly upgrades to the exclusive lock, re-checking
// in case another goroutine created it first.
func (d *EventDispatcher[K, T]) AppendListener(key K, handler Handler[T]) ListenerHandle[K, T] {
	list := d.resolve(key)
	inner := list.Append(handler)
	return ListenerHandle[K, T]{key: key, inner: inner, disp: d}
}

// KeyedHandler is a handler that also receives the dispatch key it was
// registered under, for dispatchers configured to pass the event
// identifier through to handlers.
type KeyedHandler[K comparable, T any] func(K, T)

// AppendKeyedListener registers handler against key exactly like
// AppendListener, except handler also receives key on every dispatch.
// Because a CallbackList's handler type (Handler[T]) carries no key
// parameter, the key is instead bound into a closure at registration time
// — each CallbackList belongs to exactly one key, so the key is a
// constant for the lifetime of that list.
//
// AppendKeyedListener panics if d was constructed with
// WithArgumentPassing(ArgumentPassingExcludeEvent), the policy value that
// explicitly withholds the event identifier from handlers.
func (d *EventDispatcher[K, T]) AppendKeyedListener(key K, handler KeyedHandler[K, T]) ListenerHandle[K, T] {
	if d.argumentPassing == ArgumentPassingExcludeEvent {
		panic("relay: AppendKeyedListener used on a dispatcher configured with ArgumentPassingExcludeEvent")
	}
	return d.AppendListener(key, func(arg T) { handler(key, arg) })
}

// RemoveListener removes the handler referenced by h. It reports false
// if the handler was already removed.
func (d *EventDispatcher[K, T]) RemoveListener(h ListenerHandle[K, T]) bool {
	d.mu.RLock()
	list, ok := d.idx.get(h.key)
	d.mu.RUnlock()
	if !ok {
		return false
	}
	return list.Remove(h.inner)
}

// Dispatch invokes every handler registered for key, in insertion order,
// with arg. Dispatching an unregistered key is a silent no-op, not an
// error. The dispatcher's own lock is released before any handler runs,
// so a long-running handler for one key never blocks AppendListener or
// Dispatch calls for other keys.
func (d *EventDispatcher[K, T]) Dispatch(key K, arg T) {
	d.mu.RLock()
	list, ok := d.idx.get(key)
	d.mu.RUnlock()
	if !ok {
		return
	}
	list.Invoke(arg)
}

// HasListener reports whether key has at least one registered handler.
func (d *EventDispatcher[K, T]) HasListener(key K) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list, ok := d.idx.get(key)
	return ok && !list.Empty()
}

// ListenerCount returns the number of handlers registered for key.
func (d *EventDispatcher[K, T]) ListenerCount(key K) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list, ok := d.idx.get(key)
	if !ok {
		return 0
	}
	return list.Size()
}

// resolve implements the shared-lookup / exclusive-insert / re-check
// pattern: most calls resolve an existing key under the cheap shared
// lock; only the first AppendListener for a given key pays the exclusive
// lock. When a key is created for the first time, every registered
// new-key hook runs after the exclusive lock is released, so a mixin like
// ObserveAll can attach its own handler to a brand-new CallbackList
// without re-entering the dispatcher's lock.
func (d *EventDispatcher[K, T]) resolve(key K) *CallbackList[T] {
	d.mu.RLock()
	list, ok := d.idx.get(key)
	d.mu.RUnlock()
	if ok {
		return list
	}

	d.mu.Lock()
	list, created := d.idx.getOrCreate(key)
	hooks := d.newKeyHooks
	d.mu.Unlock()

	if created {
		for _, hook := range hooks {
			hook(key, list)
		}
	}
	return list
}

// Keys returns a snapshot of every key currently registered in the
// dispatcher. Order is unspecified for a hash-indexed dispatcher and
// matches the comparator for an ordered one.
func (d *EventDispatcher[K, T]) Keys() []K {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.idx.keys()
}

// onNewKey registers fn to run, outside the dispatcher's lock, every time
// AppendListener creates a brand-new key's CallbackList. It is the hook
// ObserveAll (mixin.go) uses to attach itself to keys created after it
// was installed.
func (d *EventDispatcher[K, T]) onNewKey(fn func(K, *CallbackList[T])) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.newKeyHooks = append(d.newKeyHooks, fn)
}

// Use attaches a Mixin to the dispatcher. See mixin.go's ObserveAll for
// the supplied observe-all-keys implementation; Mixin.Attach is exported
// so callers outside this package can implement additional mixins of
// their own.
func (d *EventDispatcher[K, T]) Use(m Mixin[K, T]) {
	m.Attach(d)
}
