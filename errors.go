package relay

import "errors"

// ErrAllocationFailed is returned when a pool-backed allocator has grown
// to its configured bound (WithMaxSlabs) and its free stack is empty.
// Surfaced to the caller of EventQueue.Enqueue when the queue's cell
// allocator is pool-backed and bounded.
var ErrAllocationFailed = errors.New("relay: allocation failed")

// ErrPoolExhausted is returned internally when a Pool configured with
// WithMaxSlabs has grown to its bound and the free stack is still empty.
// Pool.Allocate replaces it with ErrAllocationFailed (not wrapped) before
// returning to the caller.
var ErrPoolExhausted = errors.New("relay: pool exhausted")
