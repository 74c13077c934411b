package repository

import (
	"context"
	"sync"
	"time"
)

type throttleEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryThrottle is the in-process counterpart of RedisThrottle. Counters
// are per instance.
type MemoryThrottle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	now     func() time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{entries: make(map[string]*throttleEntry), now: time.Now}
}

func (r *MemoryThrottle) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &throttleEntry{expiresAt: now.Add(window)}
		r.entries[key] = entry
	}
	entry.count++

	if len(r.entries) > 10000 {
		r.evictExpired(now)
	}

	return entry.count <= limit, nil
}

func (r *MemoryThrottle) evictExpired(now time.Time) {
	for k, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, k)
		}
	}
}
