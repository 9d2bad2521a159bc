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

package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListResolveFindsCoveringExtent(t *testing.T) {
	l := NewList([]Extent{
		{LogicalBlock: 0, PhysicalBlock: 1000, BlockCount: 4},
		{LogicalBlock: 10, PhysicalBlock: 2000, BlockCount: 2},
	})

	e, ok := l.Resolve(11)

	assert.True(t, ok)
	assert.Equal(t, uint64(2000), e.PhysicalBlock)
}

func TestListResolveReportsHole(t *testing.T) {
	l := NewList([]Extent{
		{LogicalBlock: 0, PhysicalBlock: 1000, BlockCount: 4},
	})

	_, ok := l.Resolve(5)

	assert.False(t, ok)
}

func TestListResolvePastLastExtentIsHole(t *testing.T) {
	l := NewList([]Extent{
		{LogicalBlock: 0, PhysicalBlock: 1000, BlockCount: 4},
	})

	_, ok := l.Resolve(100)

	assert.False(t, ok)
}

func TestDecodeExtentRoundTripsPackedLayout(t *testing.T) {
	w0, w1 := uint64(0), uint64(0)
	w0 |= 1 << 63
	w0 |= uint64(12345) << 9
	w1 |= (uint64(987654) & 0x7ffffffffff) << 21
	w1 |= 100

	e := DecodeExtent(w0, w1)

	assert.True(t, e.Unwritten)
	assert.Equal(t, uint64(12345), e.LogicalBlock)
	assert.Equal(t, uint64(100), e.BlockCount)
}
