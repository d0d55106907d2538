// Package ratelimit implements a per-key fixed-window request counter.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Limiter counts hits per key inside fixed windows.
type Limiter struct {
	// Limit is the number of allowed hits per window.
	Limit int
	// Window is the counting period.
	Window time.Duration
	// Now is swappable in tests.
	Now func() time.Time

	mu   sync.Mutex
	hits map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Status describes the outcome of one Hit call.
type Status struct {
	Count     int
	Limit     int
	Remaining int
	Limited   bool
	ResetAt   time.Time
	// RetryAfter is the wait until the window rolls over, whole seconds,
	// at least one. Meaningful only when Limited.
	RetryAfter time.Duration
}

// New builds a limiter allowing limit hits per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		Limit:  limit,
		Window: window,
		hits:   make(map[string]*bucket),
	}
}

// Hit records one request against key and reports the window state.
func (l *Limiter) Hit(key string) Status {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	t := now()

	l.mu.Lock()
	b, ok := l.hits[key]
	if !ok || !b.resetAt.After(t) {
		b = &bucket{count: 1, resetAt: t.Add(l.Window)}
		l.hits[key] = b
	} else {
		b.count++
	}
	count, resetAt := b.count, b.resetAt
	// Expired windows for other keys go too, so the map stays bounded by
	// the set of keys active within one window.
	for k, ob := range l.hits {
		if !ob.resetAt.After(t) {
			delete(l.hits, k)
		}
	}
	l.mu.Unlock()

	st := Status{
		Count:   count,
		Limit:   l.Limit,
		Limited: count > l.Limit,
		ResetAt: resetAt,
	}
	if st.Remaining = l.Limit - count; st.Remaining < 0 {
		st.Remaining = 0
	}
	if st.Limited {
		secs := math.Ceil(resetAt.Sub(t).Seconds())
		if secs < 1 {
			secs = 1
		}
		st.RetryAfter = time.Duration(secs) * time.Second
	}
	return st
}
