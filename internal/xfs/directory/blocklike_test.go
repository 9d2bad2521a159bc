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

package directory

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/namehash"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

type fakeSource struct{ data []byte }

func (s *fakeSource) ReadAt(p []byte, off int64) error {
	copy(p, s.data[off:int(off)+len(p)])
	return nil
}
func (s *fakeSource) Size() int64  { return int64(len(s.data)) }
func (s *fakeSource) Close() error { return nil }

// buildDataBlock packs one "XD2D" data block holding a live "alpha"
// entry, a tagged free region, and a live "beta" entry, in that order -
// the exact shape a real free-space hole in a block/leaf directory
// takes (not raw zero padding).
func buildDataBlock(t *testing.T, blockSize int) []byte {
	t.Helper()
	be := binary.BigEndian
	buf := make([]byte, blockSize)
	copy(buf[0:4], ondisk.MagicDir2Data)

	cursor := ondisk.SizeofDir2DataBlockHeader

	// Live entry: inode(8) namelen(1) name(5) tag(2) = 16 bytes, already
	// 8-byte aligned.
	be.PutUint64(buf[cursor:cursor+8], 500)
	buf[cursor+8] = 5
	copy(buf[cursor+9:cursor+14], "alpha")
	cursor += 16

	// Free region: freetag(2)=0xFFFF, length(2)=16, rest unused.
	be.PutUint16(buf[cursor:cursor+2], 0xFFFF)
	be.PutUint16(buf[cursor+2:cursor+4], 16)
	cursor += 16

	// Live entry: inode(8) namelen(1) name(4) pad(1) tag(2) = 16 bytes.
	be.PutUint64(buf[cursor:cursor+8], 600)
	buf[cursor+8] = 4
	copy(buf[cursor+9:cursor+13], "beta")
	cursor += 16

	require.Equal(t, blockSize, cursor)
	return buf
}

func buildLeafBlock(t *testing.T, blockSize int, entries []ondisk.DirLeafEntry) []byte {
	t.Helper()
	be := binary.BigEndian
	buf := make([]byte, blockSize)
	copy(buf[0:4], ondisk.MagicDir2Leaf1)
	be.PutUint16(buf[4:6], uint16(len(entries)))

	cursor := ondisk.SizeofDir2LeafBlockHeader
	for _, e := range entries {
		be.PutUint32(buf[cursor:cursor+4], e.Hash)
		be.PutUint32(buf[cursor+4:cursor+8], e.Address)
		cursor += 8
	}
	return buf
}

func newBlockLikeFixture(t *testing.T, withLeaf bool) *blockLikeReader {
	t.Helper()
	const blockSize = 64
	dataBlock := buildDataBlock(t, blockSize)

	extents := []extent.Extent{{LogicalBlock: 0, PhysicalBlock: 1, BlockCount: 1}}
	image := make([]byte, blockSize*2)
	copy(image[blockSize:2*blockSize], dataBlock)

	if withLeaf {
		leafLogicalBlock := uint64(ondisk.Dir2LeafOffset) / uint64(blockSize)
		// Address = absolute byte offset of the entry within the data
		// block region, divided by 8 (xfs_dir2_dataptr_t).
		aliceAddr := uint32(ondisk.SizeofDir2DataBlockHeader / 8)
		betaAddr := uint32((ondisk.SizeofDir2DataBlockHeader + 32) / 8)
		leafBlock := buildLeafBlock(t, blockSize, []ondisk.DirLeafEntry{
			{Hash: namehash.Compute([]byte("alpha")), Address: aliceAddr},
			{Hash: namehash.Compute([]byte("beta")), Address: betaAddr},
		})
		image = append(image, leafBlock...)
		extents = append(extents, extent.Extent{LogicalBlock: leafLogicalBlock, PhysicalBlock: 2, BlockCount: 1})
	}

	src := &fakeSource{data: image}
	g := &geometry.Geometry{BlockSize: uint32(blockSize)}
	ino := &inode.Inode{Core: &ondisk.InodeCore{Size: uint64(blockSize)}}

	r, err := newBlockLikeReader(extent.NewList(extents), src, g, ino, nil, Options{})
	require.NoError(t, err)
	return r
}

func TestBlockLikeReaderEnumerateSkipsFreeRegions(t *testing.T) {
	r := newBlockLikeFixture(t, false)

	var got []Entry
	err := r.Enumerate(context.Background(), func(e Entry) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, uint64(500), got[0].Inode)
	assert.Equal(t, "beta", got[1].Name)
	assert.Equal(t, uint64(600), got[1].Inode)
}

func TestBlockLikeReaderLookupUsesHashIndex(t *testing.T) {
	r := newBlockLikeFixture(t, true)

	e, ok, err := r.Lookup(context.Background(), []byte("beta"))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(600), e.Inode)
}

func TestBlockLikeReaderLookupFallsBackWithoutLeafBlock(t *testing.T) {
	r := newBlockLikeFixture(t, false)

	e, ok, err := r.Lookup(context.Background(), []byte("alpha"))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(500), e.Inode)
}

func TestBlockLikeReaderLookupMiss(t *testing.T) {
	r := newBlockLikeFixture(t, false)

	_, ok, err := r.Lookup(context.Background(), []byte("missing"))

	require.NoError(t, err)
	assert.False(t, ok)
}
