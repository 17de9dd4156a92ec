package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps timestamp lists in process memory. Suitable for
// single-instance deployments and tests; budgets are not shared across
// processes and vanish on restart.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]*memoryEntry
}

type memoryEntry struct {
	mu    sync.Mutex
	times []time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]*memoryEntry)}
}

// Take implements [Store]. The per-key critical section prevents two racing
// requests from both taking the last slot.
func (s *MemoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, max int) (Result, error) {
	s.mu.Lock()
	entry, ok := s.keys[key]
	if !ok {
		entry = &memoryEntry{}
		s.keys[key] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	cutoff := now.Add(-window)
	kept := entry.times[:0]
	for _, ts := range entry.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.times = kept

	if len(entry.times) >= max {
		oldest := entry.times[0]
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: oldest.Add(window).Sub(now),
		}, nil
	}

	entry.times = append(entry.times, now)
	return Result{Allowed: true, Remaining: max - len(entry.times)}, nil
}

// Prune drops keys whose windows have fully drained. Memory hygiene only;
// correctness never depends on it being called.
func (s *MemoryStore) Prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.keys {
		entry.mu.Lock()
		live := false
		for _, ts := range entry.times {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		entry.mu.Unlock()
		if !live {
			delete(s.keys, key)
		}
	}
}
