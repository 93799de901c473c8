// Package cache implements the bounded LRU block cache subtool's reader
// uses to avoid re-reading the same header/delay-table/block/margin
// section multiple times within one operation.
//
// Per the concurrency model (one invocation processes one subfile
// sequentially, with no inter-request parallelism), the cache is not
// safe for concurrent use from multiple goroutines — it is accessed by
// a single task, so no internal locking is needed.
package cache

import (
	"container/list"

	"github.com/icrar/subtool/internal/hash"
)

func defaultHash(key string) uint64 {
	return hash.ID(key)
}

// DefaultCapacityBytes is the default cache capacity: sized to hold
// several blocks at once without locking the whole subfile in memory.
const DefaultCapacityBytes int64 = 1 << 30 // 1 GiB

// BakeCapacityBytes is the capacity subtool's bake command uses, since
// bake walks blocks in source-order across the entire subfile and would
// otherwise thrash a 1 GiB cache.
const BakeCapacityBytes int64 = 6 << 30 // 6 GiB

// Stats accumulates observability counters for a BlockCache. These
// exist purely for diagnostics; nothing in subtool's core behavior
// depends on them.
type Stats struct {
	Hits          int64
	Misses        int64
	Inserts       int64
	Deletes       int64
	Flushes       int64
	BytesRetained int64
	BytesReleased int64
}

type entry struct {
	key   string
	hash  uint64
	bytes []byte
}

// BlockCache is a bounded-capacity LRU mapping an opaque string key
// (e.g. "header", "dt", "block-137") to an immutable byte buffer.
//
// Keys are hashed to a uint64 (see internal/hash) before bucketing, so
// two distinct keys that hash to the same value are treated as aliases
// of one cache slot — last write wins, matching the cache contract's
// "collisions are treated as aliases" rule.
type BlockCache struct {
	capacity int64
	used     int64
	ll       *list.List // front = most recently used, back = least
	items    map[uint64]*list.Element
	stats    Stats
	hashFn   func(string) uint64
}

// New creates a BlockCache with the given byte capacity.
func New(capacityBytes int64) *BlockCache {
	return &BlockCache{
		capacity: capacityBytes,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element),
		hashFn:   defaultHash,
	}
}

// Add inserts buf under key. If buf alone exceeds the cache's total
// capacity, the insert is rejected and Add returns false. Otherwise,
// entries are evicted from the LRU tail until there is room, and buf is
// inserted at the head.
func (c *BlockCache) Add(key string, buf []byte) bool {
	size := int64(len(buf))
	if size > c.capacity {
		return false
	}

	h := c.hashFn(key)
	if el, ok := c.items[h]; ok {
		old := el.Value.(*entry) //nolint:forcetypeassert
		c.used -= int64(len(old.bytes))
		old.key = key
		old.bytes = buf
		c.ll.MoveToFront(el)
		c.used += size
		c.stats.Inserts++
		c.stats.BytesRetained += size

		for c.used > c.capacity && c.ll.Len() > 1 {
			c.evictOldest()
		}

		return true
	}

	for c.used+size > c.capacity && c.ll.Len() > 0 {
		c.evictOldest()
	}

	el := c.ll.PushFront(&entry{key: key, hash: h, bytes: buf})
	c.items[h] = el
	c.used += size
	c.stats.Inserts++
	c.stats.BytesRetained += size

	return true
}

// Get returns the buffer stored under key and true, moving it to the
// head of the LRU. It returns (nil, false) and records a miss if key is
// absent.
func (c *BlockCache) Get(key string) ([]byte, bool) {
	h := c.hashFn(key)

	el, ok := c.items[h]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.stats.Hits++

	return el.Value.(*entry).bytes, true //nolint:forcetypeassert
}

// Delete removes key from the cache, if present.
func (c *BlockCache) Delete(key string) {
	h := c.hashFn(key)

	el, ok := c.items[h]
	if !ok {
		return
	}

	c.removeElement(el)
	c.stats.Deletes++
}

// Flush clears the entire cache.
func (c *BlockCache) Flush() {
	c.stats.BytesReleased += c.used
	c.stats.Flushes++
	c.ll.Init()
	c.items = make(map[uint64]*list.Element)
	c.used = 0
}

// Stats returns a snapshot of the cache's observability counters.
func (c *BlockCache) Stats() Stats {
	return c.stats
}

// Len returns the number of entries currently cached.
func (c *BlockCache) Len() int {
	return c.ll.Len()
}

func (c *BlockCache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}

	c.removeElement(el)
	c.stats.Deletes++
}

func (c *BlockCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	e := el.Value.(*entry) //nolint:forcetypeassert
	delete(c.items, e.hash)
	c.used -= int64(len(e.bytes))
	c.stats.BytesReleased += int64(len(e.bytes))
}
