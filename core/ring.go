package core

// ring is a bounded newest-first buffer. Push prepends; when the bound
// is exceeded the oldest entry falls off the tail. No deduplication.
type ring[T any] struct {
	entries []T
	max     int
}

func newRing[T any](max int) *ring[T] {
	if max <= 0 {
		max = 1
	}
	return &ring[T]{max: max}
}

// Push inserts entry at the front, evicting the oldest on overflow.
func (r *ring[T]) Push(entry T) {
	r.entries = append([]T{entry}, r.entries...)
	if len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
}

// Snapshot returns a copy of the entries, newest first.
func (r *ring[T]) Snapshot() []T {
	out := make([]T, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of buffered entries.
func (r *ring[T]) Len() int {
	return len(r.entries)
}

// Reset drops every entry.
func (r *ring[T]) Reset() {
	r.entries = nil
}
