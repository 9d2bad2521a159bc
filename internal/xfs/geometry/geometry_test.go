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

package geometry

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

type memSource struct {
	data []byte
}

func (m *memSource) ReadAt(p []byte, off int64) error {
	copy(p, m.data[off:int(off)+len(p)])
	return nil
}
func (m *memSource) Size() int64  { return int64(len(m.data)) }
func (m *memSource) Close() error { return nil }

var _ bytesource.Source = (*memSource)(nil)

func buildSuperblockImage(t *testing.T, blockSize, agBlocks, agCount uint32, inodesPerBlock uint16, versionNum uint16) *memSource {
	t.Helper()
	data := make([]byte, blockSize)
	be := binary.BigEndian
	copy(data[0:4], ondisk.MagicSuperblock)
	be.PutUint32(data[4:8], blockSize)
	be.PutUint64(data[8:16], uint64(agCount)*uint64(agBlocks))
	be.PutUint64(data[56:64], 128)
	be.PutUint32(data[84:88], agBlocks)
	be.PutUint32(data[88:92], agCount)
	be.PutUint16(data[100:102], versionNum)
	be.PutUint16(data[102:104], 512)
	be.PutUint16(data[104:106], 512)
	be.PutUint16(data[106:108], inodesPerBlock)
	return &memSource{data: data}
}

func TestOpenComputesInodeBitWidths(t *testing.T) {
	src := buildSuperblockImage(t, 4096, 1024, 4, 16, 5)

	g, err := Open(src, Options{})

	require.NoError(t, err)
	assert.Equal(t, uint(4), g.InodeBitsOffset) // log2(16)
	assert.Equal(t, uint(10), g.InodeBitsBlock) // log2(1024)
	assert.True(t, g.CRCEnabled)
}

func TestOpenRejectsNonPowerOfTwoAGBlocks(t *testing.T) {
	src := buildSuperblockImage(t, 4096, 1000, 4, 16, 5)

	_, err := Open(src, Options{})

	assert.Error(t, err)
}

func TestLocatePackRoundTrip(t *testing.T) {
	src := buildSuperblockImage(t, 4096, 1024, 4, 16, 5)
	g, err := Open(src, Options{})
	require.NoError(t, err)

	ino := g.Pack(2, 500, 9)
	off, err := g.Locate(ino)
	require.NoError(t, err)

	wantOff := int64((2*1024+500)*4096 + 9*512)
	assert.Equal(t, wantOff, off)
}

func TestLocateRejectsOutOfRangeAG(t *testing.T) {
	src := buildSuperblockImage(t, 4096, 1024, 4, 16, 5)
	g, err := Open(src, Options{})
	require.NoError(t, err)

	_, err = g.Locate(g.Pack(4, 0, 0))

	assert.Error(t, err)
}
