// Package askcache provides the short-TTL answer cache and in-flight
// request coalescing keyed by (partition, request body).
package askcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL      = 30 * time.Second
	defaultCapacity = 500
	pruneEveryOps   = 50
	pruneSizeFloor  = 200
)

// Key derives the cache identity for a request. The partition is the anon
// ID when present, otherwise the client IP, so users never share entries.
func Key(partition string, body any) string {
	payload, err := json.Marshal(struct {
		Partition string `json:"partition"`
		Body      any    `json:"body"`
	}{partition, body})
	if err != nil {
		payload = []byte(partition)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a bounded TTL cache with single-flight coalescing. The zero
// value is usable; TTL and Capacity fall back to 30s and 500.
type Cache[V any] struct {
	TTL      time.Duration
	Capacity int
	// Now is swappable in tests.
	Now func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[V]
	order   []string
	ops     int
}

func (c *Cache[V]) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache[V]) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return defaultTTL
}

func (c *Cache[V]) capacity() int {
	if c.Capacity > 0 {
		return c.Capacity
	}
	return defaultCapacity
}

// Get returns the unexpired value for key, if any.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybePruneLocked()
	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for the cache TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]entry[V])
	}
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl())}
	c.maybePruneLocked()
	for len(c.entries) > c.capacity() && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len reports the current entry count.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// maybePruneLocked drops expired entries opportunistically. A full sweep
// runs every pruneEveryOps operations or whenever the map is large.
func (c *Cache[V]) maybePruneLocked() {
	c.ops++
	if c.ops%pruneEveryOps != 0 && len(c.entries) < pruneSizeFloor {
		return
	}
	now := c.now()
	kept := c.order[:0]
	for _, k := range c.order {
		e, ok := c.entries[k]
		if !ok {
			continue
		}
		if !e.expiresAt.After(now) {
			delete(c.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

// Do returns the cached value for key or runs fn once across concurrent
// callers. The leader runs detached from any single caller's context so a
// disconnecting client does not fail its followers. Only successful
// results are cached.
func (c *Cache[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
