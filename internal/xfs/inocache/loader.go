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

package inocache

import "sync"

// call tracks a single in-flight load so concurrent GetOrLoad callers for
// the same key wait on one decode instead of racing to do their own.
type call struct {
	done  chan struct{}
	value any
	err   error
}

// Loader adds insert-or-get semantics on top of Cache: two callers
// racing on the same key never run loadFn concurrently, and the loser
// of the race observes the winner's result, per the inode cache's
// concurrency requirement.
type Loader struct {
	cache *Cache

	mu       sync.Mutex
	inFlight map[uint64]*call
}

// NewLoader wraps cache with in-flight load deduplication.
func NewLoader(cache *Cache) *Loader {
	return &Loader{cache: cache, inFlight: make(map[uint64]*call)}
}

// GetOrLoad returns the cached value for key, calling loadFn to produce
// and cache it on a miss. sizeOf reports the size to charge the cache
// for a freshly loaded value.
func (l *Loader) GetOrLoad(key uint64, sizeOf func(any) uint64, loadFn func() (any, error)) (any, error) {
	if v, ok := l.cache.LookUp(key); ok {
		return v, nil
	}

	l.mu.Lock()
	if v, ok := l.cache.LookUp(key); ok {
		l.mu.Unlock()
		return v, nil
	}
	if c, ok := l.inFlight[key]; ok {
		l.mu.Unlock()
		<-c.done
		return c.value, c.err
	}

	c := &call{done: make(chan struct{})}
	l.inFlight[key] = c
	l.mu.Unlock()

	c.value, c.err = loadFn()

	if c.err == nil {
		l.cache.Insert(key, c.value, sizeOf(c.value))
	}

	l.mu.Lock()
	delete(l.inFlight, key)
	l.mu.Unlock()
	close(c.done)

	return c.value, c.err
}
