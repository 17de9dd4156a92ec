// Package ring provides the bounded, ordered refresh-token allow-list kept
// on every principal record. Capacity is fixed at construction; pushing past
// it evicts the oldest entry, which makes the "at most N active refresh
// tokens" invariant structural rather than an ad hoc trim step applied by
// callers.
package ring

import "time"

// Entry is one active refresh token together with its issue time.
type Entry struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Ring is a fixed-capacity, oldest-first ordered collection of refresh
// tokens. The zero value has capacity zero and accepts nothing; use New.
// Ring is not safe for concurrent use; callers serialize access the same
// way they serialize updates to the principal record that owns it.
type Ring struct {
	capacity int
	entries  []Entry
}

// New returns an empty ring holding at most capacity entries. A capacity
// below one is treated as one.
func New(capacity int) Ring {
	if capacity < 1 {
		capacity = 1
	}
	return Ring{capacity: capacity}
}

// Push appends e as the newest entry, evicting the oldest entries until the
// ring is back within capacity.
func (r *Ring) Push(e Entry) {
	if r.capacity < 1 {
		r.capacity = 1
	}
	r.entries = append(r.entries, e)
	if overflow := len(r.entries) - r.capacity; overflow > 0 {
		r.entries = append(r.entries[:0], r.entries[overflow:]...)
	}
}

// Remove deletes the entry holding the given token value. It reports
// whether an entry was removed; at most one entry is removed per call.
func (r *Ring) Remove(token string) bool {
	for i, e := range r.entries {
		if e.Token == token {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the ring holds the given token value.
func (r *Ring) Contains(token string) bool {
	for _, e := range r.entries {
		if e.Token == token {
			return true
		}
	}
	return false
}

// Clear removes every entry. Capacity is unchanged.
func (r *Ring) Clear() {
	r.entries = r.entries[:0]
}

// Len returns the number of entries currently held.
func (r *Ring) Len() int {
	return len(r.entries)
}

// Capacity returns the maximum number of entries the ring retains.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Entries returns a copy of the entries, oldest first.
func (r *Ring) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clone returns an independent copy of the ring.
func (r Ring) Clone() Ring {
	c := Ring{capacity: r.capacity}
	if len(r.entries) > 0 {
		c.entries = make([]Entry, len(r.entries))
		copy(c.entries, r.entries)
	}
	return c
}
