// Package args provides a typed field layer for payloads carried through
// relay's generic EventDispatcher and EventQueue. It is a convenience
// collaborator, not part of the core primitives: relay's generic
// parameter T accepts any payload type, and *args.Set is one reasonable
// choice when a caller wants named, type-checked fields instead of a
// bespoke struct per event identifier.
package args

import (
	"fmt"
	"reflect"
)

// Field identifies a named, typed slot that a Set can carry. A Field[T]
// is stateless and reusable: build one value per name/type pair and hand
// it to every Of/Get call for that slot, the way a map key constant is
// reused across map accesses.
//
// Two Fields sharing a name but differing in T address the same slot —
// Set stores entries by name alone — and reading through a Field whose T
// does not match the stored value fails closed (ok=false) instead of
// returning a zero value silently.
type Field[T any] struct {
	name string
}

// NewField creates a Field for values of type T under name. Use a
// namespaced name to avoid collisions across packages, e.g.
// "orders.total" rather than "total".
func NewField[T any](name string) Field[T] {
	return Field[T]{name: name}
}

// Name returns the field's identifier.
func (f Field[T]) Name() string { return f.name }

// Of pairs f with value, producing an Entry ready to hand to NewSet.
func (f Field[T]) Of(value T) Entry {
	return Entry{name: f.name, typ: reflect.TypeOf(value), value: value}
}

// Get reads f's value out of s. It reports false if s has no entry under
// f's name, or if that entry was stored with a different concrete type
// than T.
func (f Field[T]) Get(s *Set) (T, bool) {
	var zero T
	e, ok := s.entry(f.name)
	if !ok {
		return zero, false
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Entry is one (name, typed value) pair produced by Field.Of, ready to be
// collected into a Set. An Entry is opaque outside this package except
// for its Name and Type accessors; reading the value back requires the
// originating Field.
type Entry struct {
	name  string
	typ   reflect.Type
	value any
}

// Name returns the name this entry was created under.
func (e Entry) Name() string { return e.name }

// Type reports the concrete Go type this entry's value was stored as.
func (e Entry) Type() reflect.Type { return e.typ }

func (e Entry) String() string {
	return fmt.Sprintf("%s=%v", e.name, e.value)
}

// Set is a named bag of typed entries — one payload shape usable as the
// T parameter of EventDispatcher[K, *Set] / EventQueue[K, *Set] for
// callers who want field-level typing instead of a dedicated struct per
// event identifier. Every method is nil-receiver-safe: a nil *Set reads
// like an empty one.
type Set struct {
	entries map[string]Entry
}

// NewSet builds a Set from the given entries. A later entry with the
// same name overwrites an earlier one, regardless of type.
func NewSet(entries ...Entry) *Set {
	s := &Set{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		s.entries[e.name] = e
	}
	return s
}

func (s *Set) entry(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[name]
	return e, ok
}

// Entries returns every entry in s as a slice, in no particular order.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the number of entries in s.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
