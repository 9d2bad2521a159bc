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

package volume

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

type memSource struct{ data []byte }

func (m *memSource) ReadAt(p []byte, off int64) error {
	copy(p, m.data[off:int(off)+len(p)])
	return nil
}
func (m *memSource) Size() int64  { return int64(len(m.data)) }
func (m *memSource) Close() error { return nil }

func buildImage(t *testing.T) *memSource {
	t.Helper()
	blockSize := uint32(512)
	agBlocks := uint32(64)
	inodeSize := uint16(256)
	inodesPerBlock := uint16(2)
	totalBlocks := agBlocks

	data := make([]byte, int(totalBlocks)*int(blockSize))
	be := binary.BigEndian

	sb := data[:ondisk.SizeofSuperblock]
	copy(sb[0:4], ondisk.MagicSuperblock)
	be.PutUint32(sb[4:8], blockSize)
	be.PutUint64(sb[8:16], uint64(totalBlocks))
	copy(sb[32:48], []byte("0123456789abcdef")[:16])
	be.PutUint64(sb[56:64], 128) // root inode
	be.PutUint32(sb[84:88], agBlocks)
	be.PutUint32(sb[88:92], 1) // ag count
	be.PutUint16(sb[100:102], 5)
	be.PutUint16(sb[102:104], 512)
	be.PutUint16(sb[104:106], inodeSize)
	be.PutUint16(sb[106:108], inodesPerBlock)
	copy(sb[108:120], []byte("testvol\x00\x00\x00\x00\x00"))

	// The root inode's number follows the bit split geometry.Open derives:
	// InodeBitsOffset = log2(inodesPerBlock) = 1, InodeBitsBlock =
	// log2(agBlocks) = 6. Inode 128 would fall in AG 128>>7 = 1, which this
	// one-AG image lacks, so the root is placed at block 1, slot 0:
	// ino = (block<<1)|slot = (1<<1)|0 = 2.
	rootIno := uint64(2)
	be.PutUint64(sb[56:64], rootIno)

	rootOff := int64(1) * int64(blockSize)
	rootInode := data[rootOff : rootOff+int64(inodeSize)]
	copy(rootInode[0:2], ondisk.MagicInode)
	be.PutUint16(rootInode[2:4], 0040755)
	rootInode[4] = 2
	rootInode[5] = ondisk.FormatLocal
	be.PutUint32(rootInode[16:20], 2)

	shortform := rootInode[ondisk.SizeofInodeCoreV1V2:]
	shortform[0] = 0 // entry count
	shortform[1] = 0
	be.PutUint32(shortform[2:6], uint32(rootIno)) // parent = self

	return &memSource{data: data}
}

func TestOpenAndResolveRoot(t *testing.T) {
	src := buildImage(t)

	v, err := Open(src, Options{})
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, "testvol", v.Label())
	assert.Equal(t, 5, v.FormatVersion())

	root, err := v.Root()
	require.NoError(t, err)
	assert.True(t, root.IsDir())
}

func TestOpenByInodeCachesDecode(t *testing.T) {
	src := buildImage(t)
	v, err := Open(src, Options{})
	require.NoError(t, err)
	defer v.Close()

	a, err := v.OpenByInode(2)
	require.NoError(t, err)
	b, err := v.OpenByInode(2)
	require.NoError(t, err)

	assert.Equal(t, a.Number(), b.Number())
}

func TestSignalAbortIsObservable(t *testing.T) {
	src := buildImage(t)
	v, err := Open(src, Options{})
	require.NoError(t, err)
	defer v.Close()

	v.SignalAbort()

	assert.True(t, v.abort.Load())
}
