package chat

import "sync"

// ring is a fixed-capacity exchange buffer. Entries are ordered by
// completion time, newest first; the oldest entry is evicted once the
// capacity is exceeded.
type ring struct {
	mu      sync.Mutex
	cap     int
	entries []Exchange
}

func newRing(capacity int) *ring {
	return &ring{cap: capacity}
}

func (r *ring) add(ex Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Exchange{})
	copy(r.entries[1:], r.entries)
	r.entries[0] = ex
	if len(r.entries) > r.cap {
		r.entries = r.entries[:r.cap]
	}
}

func (r *ring) list() []Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Exchange, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
