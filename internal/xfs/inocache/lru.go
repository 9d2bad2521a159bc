// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package inocache caches decoded inode records, keyed by absolute inode
// number, behind a bounded LRU, with
// insert-or-get semantics so two lookups racing on the same inode number
// never decode it twice.
package inocache

import (
	"container/list"

	"github.com/jacobsa/syncutil"
)

// entry is a cache slot: a key, its cached value, and the value's
// reported size for accounting against maxSize.
type entry struct {
	key   uint64
	value any
	size  uint64
}

// lru is a bounded least-recently-used cache keyed by absolute inode
// number, modeled on the teacher's internal/cache/lru.Cache: Insert
// returns the values evicted to make room, LookUp promotes the hit to
// most-recently-used.
type lru struct {
	maxSize     uint64
	currentSize uint64
	ll          *list.List
	index       map[uint64]*list.Element
}

func newLRU(maxSize uint64) *lru {
	return &lru{
		maxSize: maxSize,
		ll:      list.New(),
		index:   make(map[uint64]*list.Element),
	}
}

func (c *lru) lookUp(key uint64) (any, bool) {
	el, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lru) insert(key uint64, value any, size uint64) []any {
	if el, ok := c.index[key]; ok {
		c.currentSize -= el.Value.(*entry).size
		c.ll.Remove(el)
		delete(c.index, key)
	}

	el := c.ll.PushFront(&entry{key: key, value: value, size: size})
	c.index[key] = el
	c.currentSize += size

	var evicted []any
	for c.currentSize > c.maxSize && c.ll.Len() > 1 {
		back := c.ll.Back()
		be := back.Value.(*entry)
		c.ll.Remove(back)
		delete(c.index, be.key)
		c.currentSize -= be.size
		evicted = append(evicted, be.value)
	}
	return evicted
}

// Cache is the public, concurrency-safe inode cache. It holds values of
// any type sized by a caller-supplied accounting function, so it can
// cache *inode.Inode without this package importing that package (which
// would create an import cycle).
type Cache struct {
	mu syncutil.InvariantMutex

	backing *lru
}

// NewCache returns a cache bounded to maxSize units of whatever size
// function callers pass to Insert.
func NewCache(maxSize uint64) *Cache {
	c := &Cache{backing: newLRU(maxSize)}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

func (c *Cache) checkInvariants() {
	if c.backing.currentSize > c.backing.maxSize && c.backing.ll.Len() > 1 {
		panic("inocache: currentSize exceeds maxSize with room left to evict")
	}
}

// LookUp returns the cached value for ino, or (nil, false) on a miss.
func (c *Cache) LookUp(ino uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backing.lookUp(ino)
}

// Insert stores value for ino, sized size, evicting least-recently-used
// entries as needed to stay within maxSize.
func (c *Cache) Insert(ino uint64, value any, size uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backing.insert(ino, value, size)
}
