package places

import (
	"sync"
	"time"

	"github.com/dinefind/core/internal/models"
)

type l1Entry struct {
	candidates []models.Candidate
	storedAt   time.Time
	seq        uint64
}

type l1Queued struct {
	key string
	seq uint64
}

// l1Cache is a bounded process-local cache with FIFO eviction. Entries
// are short-lived, so insertion order beats recency tracking and keeps
// writers O(1).
type l1Cache struct {
	mu      sync.Mutex
	entries map[string]l1Entry
	queue   []l1Queued
	size    int
	ttl     time.Duration
	seq     uint64
}

func newL1Cache(size int, ttl time.Duration) *l1Cache {
	if size <= 0 {
		size = 1
	}
	return &l1Cache{entries: make(map[string]l1Entry, size), size: size, ttl: ttl}
}

// get returns the cached slice and its age. Expired entries are dropped
// on read.
func (c *l1Cache) get(key string) ([]models.Candidate, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, 0, false
	}
	age := time.Since(e.storedAt)
	if age > c.ttl {
		delete(c.entries, key)
		return nil, 0, false
	}
	return e.candidates, age, true
}

func (c *l1Cache) set(key string, candidates []models.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.entries[key] = l1Entry{candidates: candidates, storedAt: time.Now(), seq: c.seq}
	c.queue = append(c.queue, l1Queued{key: key, seq: c.seq})
	for len(c.entries) > c.size {
		c.evictOldest()
	}
	if len(c.queue) > 4*c.size {
		c.compact()
	}
}

// evictOldest pops queue heads until one still names a live entry. A
// head goes stale when its key was overwritten after being queued.
func (c *l1Cache) evictOldest() {
	for len(c.queue) > 0 {
		head := c.queue[0]
		c.queue = c.queue[1:]
		if e, ok := c.entries[head.key]; ok && e.seq == head.seq {
			delete(c.entries, head.key)
			return
		}
	}
}

// compact drops stale queue positions, preserving order.
func (c *l1Cache) compact() {
	live := c.queue[:0]
	for _, q := range c.queue {
		if e, ok := c.entries[q.key]; ok && e.seq == q.seq {
			live = append(live, q)
		}
	}
	c.queue = live
}

func (c *l1Cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
