package askcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKey_PartitionSeparatesUsers(t *testing.T) {
	body := map[string]string{"question": "same"}
	if Key("user-a", body) == Key("user-b", body) {
		t.Fatalf("different partitions must not collide")
	}
	if Key("user-a", body) != Key("user-a", body) {
		t.Fatalf("key must be deterministic")
	}
}

func TestGetPut_TTL(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	c := &Cache[string]{Now: func() time.Time { return now }}

	c.Put("k", "v")
	if got, ok := c.Get("k"); !ok || got != "v" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should expire after 30s")
	}
}

func TestPut_FIFOCapacity(t *testing.T) {
	c := &Cache[int]{Capacity: 3}
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	if c.Len() != 3 {
		t.Fatalf("capacity not enforced: %d", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("oldest entry should be evicted first")
	}
	if got, ok := c.Get("k4"); !ok || got != 4 {
		t.Fatalf("newest entry should survive")
	}
}

func TestPrune_DropsExpiredOnOpThreshold(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	c := &Cache[int]{Now: func() time.Time { return now }}

	c.Put("stale", 1)
	now = now.Add(time.Minute)
	for i := 0; i < pruneEveryOps; i++ {
		c.Get("unrelated")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be pruned, size %d", c.Len())
	}
}

func TestDo_CoalescesConcurrentCallers(t *testing.T) {
	c := &Cache[string]{}
	var runs atomic.Int32
	release := make(chan struct{})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Do(context.Background(), "k", func(context.Context) (string, error) {
				runs.Add(1)
				<-release
				return "answer", nil
			})
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("pipeline should run once, ran %d times", got)
	}
	for i, v := range results {
		if v != "answer" {
			t.Fatalf("caller %d got %q", i, v)
		}
	}
}

func TestDo_CachesSuccessOnly(t *testing.T) {
	c := &Cache[string]{}
	calls := 0
	fail := func(context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	}
	if _, err := c.Do(context.Background(), "k", fail); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := c.Do(context.Background(), "k", fail); err == nil {
		t.Fatalf("failure must not be cached")
	}
	if calls != 2 {
		t.Fatalf("expected 2 runs, got %d", calls)
	}

	ok := func(context.Context) (string, error) { calls++; return "v", nil }
	if _, err := c.Do(context.Background(), "k", ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, err := c.Do(context.Background(), "k", ok); err != nil || v != "v" {
		t.Fatalf("expected cached value, got %q %v", v, err)
	}
	if calls != 3 {
		t.Fatalf("success should be served from cache, got %d runs", calls)
	}
}

func TestDo_CallerCancelDoesNotAbortLeader(t *testing.T) {
	c := &Cache[string]{}
	started := make(chan struct{})
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, "k", func(runCtx context.Context) (string, error) {
			close(started)
			select {
			case <-runCtx.Done():
				return "", runCtx.Err()
			case <-release:
				return "done", nil
			}
		})
		errCh <- err
	}()

	<-started
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("caller should observe its own cancellation, got %v", err)
	}

	close(release)
	// The detached leader finishes and caches despite the cancel.
	deadline := time.After(time.Second)
	for {
		if v, ok := c.Get("k"); ok {
			if v != "done" {
				t.Fatalf("unexpected cached value %q", v)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("leader result never cached")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
