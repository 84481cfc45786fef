package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

type event struct {
	at     int64 // unix ms
	member string
}

// MemoryStore keeps windows in process
// it backs tests and single instance development runs
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]event
	expires map[string]int64
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: map[string][]event{}, expires: map[string]int64{}}
}

// SlidingWindow implements Store
func (m *MemoryStore) SlidingWindow(_ context.Context, key string, now time.Time, window time.Duration, limit int, member string) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowMs := now.UnixMilli()
	if exp, ok := m.expires[key]; ok && nowMs >= exp {
		delete(m.windows, key)
		delete(m.expires, key)
	}

	start := nowMs - window.Milliseconds()
	evs := m.windows[key]
	keep := evs[:0]
	for _, e := range evs {
		if e.at >= start {
			keep = append(keep, e)
		}
	}

	w := Window{Count: len(keep)}
	if len(keep) < limit {
		keep = append(keep, event{at: nowMs, member: member})
		sort.SliceStable(keep, func(i, j int) bool { return keep[i].at < keep[j].at })
		m.expires[key] = nowMs + window.Milliseconds()
		w.Admitted = true
	}
	if len(keep) > 0 {
		w.Oldest = time.UnixMilli(keep[0].at)
	}
	m.windows[key] = keep
	return w, nil
}

// Len reports the recorded events for key, for tests
func (m *MemoryStore) Len(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows[key])
}
