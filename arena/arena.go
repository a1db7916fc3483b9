// Package arena implements the typed append-only arenas described in
// spec §3 ("Identifiers and arenas"): the model compiler emits every
// entity (types, fields, queries, mutations, access expressions, SQL
// tables, columns, relations) into an arena and refers to other entities
// by arena index rather than by pointer. This dissolves the cyclic
// type ↔ field ↔ relation graph into plain data and makes the whole
// compiled image serialisable without pointer fix-up on load.
package arena

// Idx is a typed index into an Arena[T]. The zero value is the index of
// the first item added to an arena, so an Idx has no "absent" state;
// callers that need one keep it out of band (a pointer-to-Idx or a flag).
type Idx[T any] int32

// Arena is an append-only typed collection. Values are never removed or
// reordered, so an Idx handed out by Add remains valid for the arena's
// entire lifetime.
type Arena[T any] struct {
	items []T
}

// New returns an empty arena, optionally pre-sized.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Add appends v and returns its index.
func (a *Arena[T]) Add(v T) Idx[T] {
	a.items = append(a.items, v)
	return Idx[T](len(a.items) - 1)
}

// Get dereferences idx. It panics on an out-of-range index, mirroring
// slice indexing semantics: arena indices are only ever produced by Add
// or by deserialising a previously-valid image, so an out-of-range index
// indicates a compiler bug, not recoverable user input.
func (a *Arena[T]) Get(idx Idx[T]) T {
	return a.items[idx]
}

// Set overwrites the value at idx. Used by compiler passes that build an
// entity in two steps (e.g. a type that must exist before its fields,
// which reference it, can be resolved, and then gets its field list
// patched in).
func (a *Arena[T]) Set(idx Idx[T], v T) {
	a.items[idx] = v
}

// Len returns the number of entities stored.
func (a *Arena[T]) Len() int { return len(a.items) }

// All returns the backing slice. Callers must not retain it across a
// subsequent Add, which may reallocate.
func (a *Arena[T]) All() []T { return a.items }

// Range calls f for every (index, value) pair in insertion order.
func (a *Arena[T]) Range(f func(Idx[T], T) bool) {
	for i, v := range a.items {
		if !f(Idx[T](i), v) {
			return
		}
	}
}
