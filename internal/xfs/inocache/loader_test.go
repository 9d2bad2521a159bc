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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderCachesResultAcrossCalls(t *testing.T) {
	l := NewLoader(NewCache(1024))
	var loads int32

	load := func() (any, error) {
		atomic.AddInt32(&loads, 1)
		return "value", nil
	}
	sizeOf := func(any) uint64 { return 1 }

	v1, err := l.GetOrLoad(7, sizeOf, load)
	require.NoError(t, err)
	v2, err := l.GetOrLoad(7, sizeOf, load)
	require.NoError(t, err)

	assert.Equal(t, "value", v1)
	assert.Equal(t, "value", v2)
	assert.EqualValues(t, 1, loads)
}

func TestLoaderDeduplicatesConcurrentLoads(t *testing.T) {
	l := NewLoader(NewCache(1024))
	var loads int32
	start := make(chan struct{})

	load := func() (any, error) {
		<-start
		atomic.AddInt32(&loads, 1)
		return "value", nil
	}
	sizeOf := func(any) uint64 { return 1 }

	var wg sync.WaitGroup
	results := make([]any, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.GetOrLoad(99, sizeOf, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, loads)
	for _, v := range results {
		assert.Equal(t, "value", v)
	}
}

func TestLoaderPropagatesLoadError(t *testing.T) {
	l := NewLoader(NewCache(1024))
	wantErr := assert.AnError

	_, err := l.GetOrLoad(1, func(any) uint64 { return 1 }, func() (any, error) {
		return nil, wantErr
	})

	assert.ErrorIs(t, err, wantErr)

	_, ok := l.cache.LookUp(1)
	assert.False(t, ok)
}
