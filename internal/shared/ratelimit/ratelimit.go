package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow counts requests per caller identity over a rolling window.
// Timestamps older than the window are pruned on every check.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func New(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		hits:   map[string][]time.Time{},
	}
}

// Allow records one request for the key and reports whether it fits in the
// window.
func (w *SlidingWindow) Allow(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	recent := w.hits[key][:0]
	for _, hit := range w.hits[key] {
		if hit.After(cutoff) {
			recent = append(recent, hit)
		}
	}

	if len(recent) >= w.limit {
		w.hits[key] = recent
		return false
	}
	w.hits[key] = append(recent, now)
	return true
}
