// Package cooldown suppresses repeated scans of the same resource within a
// fixed window.
package cooldown

import (
	"sync"
	"time"
)

// Tracker remembers the last allowed scan per scope key. Entries are never
// evicted; the key space (sessions x students) stays small enough that this
// does not matter for a single campus.
type Tracker struct {
	window time.Duration
	mu     sync.Mutex
	last   map[string]time.Time
	now    func() time.Time
}

// New creates a tracker with the given window.
func New(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a scan for key may proceed and, when it may, records
// it. A denied scan leaves the previous timestamp untouched.
func (t *Tracker) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if prev, ok := t.last[key]; ok && now.Sub(prev) <= t.window {
		return false
	}
	t.last[key] = now
	return true
}
