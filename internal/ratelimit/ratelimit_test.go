package ratelimit

import (
	"testing"
	"time"
)

func TestHit_AllowsUpToLimit(t *testing.T) {
	l := New(10, time.Minute)
	for i := 1; i <= 10; i++ {
		st := l.Hit("ask:1.2.3.4")
		if st.Limited {
			t.Fatalf("hit %d should be allowed", i)
		}
		if st.Remaining != 10-i {
			t.Fatalf("hit %d: remaining %d", i, st.Remaining)
		}
	}
	st := l.Hit("ask:1.2.3.4")
	if !st.Limited || st.Remaining != 0 {
		t.Fatalf("11th hit should be limited: %+v", st)
	}
	if st.RetryAfter < time.Second {
		t.Fatalf("retry-after must be at least 1s: %v", st.RetryAfter)
	}
}

func TestHit_WindowResets(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.Now = func() time.Time { return now }

	l.Hit("k")
	l.Hit("k")
	if st := l.Hit("k"); !st.Limited {
		t.Fatalf("expected limit")
	}

	now = now.Add(61 * time.Second)
	if st := l.Hit("k"); st.Limited || st.Count != 1 {
		t.Fatalf("window should reset: %+v", st)
	}
}

func TestHit_KeysIndependent(t *testing.T) {
	l := New(1, time.Minute)
	l.Hit("ask:a")
	if st := l.Hit("ask:b"); st.Limited {
		t.Fatalf("keys must not share windows")
	}
}

func TestHit_ExpiredKeysEvicted(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	l := New(5, time.Minute)
	l.Now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.Hit(string(rune('a' + i%26)))
	}
	now = now.Add(2 * time.Minute)
	l.Hit("fresh")
	l.mu.Lock()
	size := len(l.hits)
	l.mu.Unlock()
	if size != 1 {
		t.Fatalf("expired buckets should be evicted, map size %d", size)
	}
}
