package relay

// ListenerHandle is the removal ticket returned by
// EventDispatcher.AppendListener: the dispatch key plus the inner
// CallbackList Handle, so RemoveListener (or the Close convenience below)
// can look up the right per-key list by key and remove the handler from it.
type ListenerHandle[K comparable, T any] struct {
	key   K
	inner Handle[T]
	disp  *EventDispatcher[K, T]
}

// Close removes this listener from the dispatcher it was registered on,
// preventing future dispatches from reaching it. It reports false if the
// listener was already removed.
func (h ListenerHandle[K, T]) Close() bool {
	if h.disp == nil {
		return false
	}
	return h.disp.RemoveListener(h)
}
