// Package debounce guards mutating endpoints against double submission:
// the same (user, action) pair is accepted once per time bucket.
package debounce

import (
	"fmt"
	"sync"
	"time"
)

// Guard is the server-side one-shot latch. It replaces a client-side
// submit lock, so a retried or double-clicked request inside the same
// window is rejected instead of applied twice.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

// NewGuard creates a guard with the given bucket window
func NewGuard(window time.Duration) *Guard {
	return &Guard{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether this (user, action) pair may proceed in the
// current time bucket. The first call in a bucket arms the latch; later
// calls in the same bucket are rejected.
func (g *Guard) Allow(user, action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	bucket := now.UnixNano() / int64(g.window)
	key := fmt.Sprintf("%s|%s|%d", user, action, bucket)

	if _, dup := g.seen[key]; dup {
		return false
	}

	g.prune(now)
	g.seen[key] = now
	return true
}

// prune drops latches older than two windows
func (g *Guard) prune(now time.Time) {
	cutoff := now.Add(-2 * g.window)
	for key, at := range g.seen {
		if at.Before(cutoff) {
			delete(g.seen, key)
		}
	}
}
