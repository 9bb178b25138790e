// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package cache provides an in-process LRU cache with TTL expiry.
package cache

import (
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	prev      *entry[K, V]
	next      *entry[K, V]
	expiresAt time.Time
}

// LRU is a thread-safe least recently used cache whose entries expire after
// a fixed TTL. Expiry is lazy: stale entries are dropped when touched or when
// eviction reaches them.
//
// A doubly-linked list keeps recency order and a map gives O(1) lookup.
// head.next is the most recently used entry, tail.prev the least.
type LRU[K comparable, V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[K]*entry[K, V]
	head     *entry[K, V]
	tail     *entry[K, V]

	hits   int64
	misses int64

	now func() time.Time
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Size     int
	Capacity int
	Hits     int64
	Misses   int64
}

// NewLRU creates a cache. Non-positive arguments fall back to 10000
// entries and a 5 minute TTL.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*entry[K, V]),
		head:     &entry[K, V]{},
		tail:     &entry[K, V]{},
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached value and true when present and unexpired.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		return zero, false
	}
	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Add inserts or refreshes key, evicting the least recently used entry
// when the cache is full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(e)
	c.items[key] = e
	for len(c.items) > c.capacity {
		c.removeEntry(c.tail.prev)
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeEntry(e)
		return true
	}
	return false
}

// Len returns the number of entries, including expired ones not yet dropped.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired drops every expired entry and returns how many were removed.
func (c *LRU[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), Capacity: c.capacity, Hits: c.hits, Misses: c.misses}
}

func (c *LRU[K, V]) addToFront(e *entry[K, V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *LRU[K, V]) moveToFront(e *entry[K, V]) {
	c.unlink(e)
	c.addToFront(e)
}

func (c *LRU[K, V]) removeEntry(e *entry[K, V]) {
	c.unlink(e)
	delete(c.items, e.key)
}
