package imaging

import (
	"hash/fnv"
	"sync"
	"time"
)

// compressionCache memoizes compressed images by content hash. It is
// shared across concurrent requests, so entries are sharded and each
// shard carries its own lock: operations on the same hash are atomic,
// different hashes rarely contend.
const cacheShards = 16

type compressionCache struct {
	ttl    time.Duration
	shards [cacheShards]cacheShard
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img      ProcessedImage
	storedAt time.Time
}

func newCompressionCache(ttl time.Duration) *compressionCache {
	c := &compressionCache{ttl: ttl}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]cacheEntry)
	}
	return c
}

func (c *compressionCache) shard(hash string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(hash))
	return &c.shards[h.Sum32()%cacheShards]
}

func (c *compressionCache) get(hash string, now time.Time) (ProcessedImage, bool) {
	s := c.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		return ProcessedImage{}, false
	}
	if c.ttl > 0 && now.Sub(e.storedAt) > c.ttl {
		delete(s.entries, hash)
		return ProcessedImage{}, false
	}
	return e.img, true
}

func (c *compressionCache) set(hash string, img ProcessedImage, now time.Time) {
	s := c.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hash] = cacheEntry{img: img, storedAt: now}
}

// sweep removes entries older than the TTL and returns how many were
// evicted. Called from the periodic cleanup task.
func (c *compressionCache) sweep(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	evicted := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for hash, e := range s.entries {
			if now.Sub(e.storedAt) > c.ttl {
				delete(s.entries, hash)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}

func (c *compressionCache) len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}
