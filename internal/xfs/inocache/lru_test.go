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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheLookUpMiss(t *testing.T) {
	c := NewCache(1024)

	_, ok := c.LookUp(42)

	assert.False(t, ok)
}

func TestCacheInsertThenLookUp(t *testing.T) {
	c := NewCache(1024)

	c.Insert(42, "hello", 5)
	v, ok := c.LookUp(42)

	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(10)

	c.Insert(1, "a", 6)
	c.Insert(2, "b", 6) // evicts 1

	_, ok := c.LookUp(1)
	assert.False(t, ok)

	v, ok := c.LookUp(2)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestCacheLookUpPromotesToMostRecentlyUsed(t *testing.T) {
	c := NewCache(10)

	c.Insert(1, "a", 5)
	c.Insert(2, "b", 5)
	c.LookUp(1) // promote 1 ahead of 2
	c.Insert(3, "c", 5) // should evict 2, not 1

	_, ok := c.LookUp(2)
	assert.False(t, ok)

	v, ok := c.LookUp(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestCacheConcurrentInsertIsRaceFree(t *testing.T) {
	c := NewCache(1 << 20)

	var wg sync.WaitGroup
	for i := uint64(0); i < 64; i++ {
		wg.Add(1)
		go func(ino uint64) {
			defer wg.Done()
			c.Insert(ino, ino, 1)
		}(i)
	}
	wg.Wait()

	for i := uint64(0); i < 64; i++ {
		v, ok := c.LookUp(i)
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}
