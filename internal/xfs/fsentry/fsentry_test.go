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

package fsentry

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

type memSource struct{ data []byte }

func (m *memSource) ReadAt(p []byte, off int64) error {
	copy(p, m.data[off:int(off)+len(p)])
	return nil
}
func (m *memSource) Size() int64  { return int64(len(m.data)) }
func (m *memSource) Close() error { return nil }

func buildInodeBytes(t *testing.T, mode uint16, forkFmt uint8, dataFork []byte, size uint64) []byte {
	t.Helper()
	data := make([]byte, 256)
	be := binary.BigEndian
	copy(data[0:2], ondisk.MagicInode)
	be.PutUint16(data[2:4], mode)
	data[4] = 2
	data[5] = forkFmt
	be.PutUint32(data[16:20], 1)
	be.PutUint64(data[56:64], size)
	copy(data[ondisk.SizeofInodeCoreV1V2:], dataFork)
	return data
}

func testGeometry() *geometry.Geometry {
	return &geometry.Geometry{InodeSize: 256, BlockSize: 512}
}

func TestEntryReadInlineSymlink(t *testing.T) {
	target := "../other/file"
	raw := buildInodeBytes(t, 0120777, ondisk.FormatLocal, []byte(target), uint64(len(target)))
	in, err := inode.Decode(128, raw, testGeometry(), nil)
	require.NoError(t, err)

	ctx := &Context{Geometry: testGeometry()}
	e := &Entry{ctx: ctx, ino: in}

	got, err := e.ReadSymlink()

	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestEntryChildrenVisitsShortformEntries(t *testing.T) {
	parentIno := uint64(128)
	var shortform []byte
	shortform = append(shortform, 1, 0)
	pbuf := make([]byte, 4)
	binary.BigEndian.PutUint32(pbuf, uint32(parentIno))
	shortform = append(shortform, pbuf...)
	shortform = append(shortform, byte(len("child")), 0, 0)
	shortform = append(shortform, []byte("child")...)
	childBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(childBuf, 200)
	shortform = append(shortform, childBuf...)

	raw := buildInodeBytes(t, 0040755, ondisk.FormatLocal, shortform, 0)
	in, err := inode.Decode(parentIno, raw, testGeometry(), nil)
	require.NoError(t, err)

	childRaw := buildInodeBytes(t, 0100644, ondisk.FormatLocal, []byte("hi"), 2)
	childInode, err := inode.Decode(200, childRaw, testGeometry(), nil)
	require.NoError(t, err)

	ctx := &Context{
		Geometry: testGeometry(),
		LoadInode: func(number uint64) (*inode.Inode, error) {
			if number == 200 {
				return childInode, nil
			}
			return nil, nil
		},
	}
	e := &Entry{ctx: ctx, ino: in}

	var names []string
	err = e.Children(context.Background(), func(name string, child *Entry) error {
		names = append(names, name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, names)
}

func appendShortformEntry(shortform []byte, name string, ino uint32) []byte {
	shortform = append(shortform, byte(len(name)), 0, 0)
	shortform = append(shortform, []byte(name)...)
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, ino)
	return append(shortform, buf...)
}

func buildRootWithSymlink(t *testing.T) (root, link, real *Entry) {
	t.Helper()
	parentIno := uint64(128)
	shortform := []byte{2, 0}
	pbuf := make([]byte, 4)
	binary.BigEndian.PutUint32(pbuf, uint32(parentIno))
	shortform = append(shortform, pbuf...)
	shortform = appendShortformEntry(shortform, "link", 200)
	shortform = appendShortformEntry(shortform, "real", 300)

	rawRoot := buildInodeBytes(t, 0040755, ondisk.FormatLocal, shortform, 0)
	rootIno, err := inode.Decode(parentIno, rawRoot, testGeometry(), nil)
	require.NoError(t, err)

	rawLink := buildInodeBytes(t, 0120777, ondisk.FormatLocal, []byte("real"), 4)
	linkIno, err := inode.Decode(200, rawLink, testGeometry(), nil)
	require.NoError(t, err)

	rawReal := buildInodeBytes(t, 0100644, ondisk.FormatLocal, []byte("hi"), 2)
	realIno, err := inode.Decode(300, rawReal, testGeometry(), nil)
	require.NoError(t, err)

	ctx := &Context{
		Geometry: testGeometry(),
		LoadInode: func(number uint64) (*inode.Inode, error) {
			switch number {
			case 200:
				return linkIno, nil
			case 300:
				return realIno, nil
			}
			return nil, nil
		},
	}
	return &Entry{ctx: ctx, ino: rootIno}, &Entry{ctx: ctx, ino: linkIno}, &Entry{ctx: ctx, ino: realIno}
}

func TestOpenByPathLeavesFinalSymlinkUnresolvedByDefault(t *testing.T) {
	root, _, _ := buildRootWithSymlink(t)

	got, err := OpenByPath(root.ctx, root, "link")

	require.NoError(t, err)
	assert.True(t, got.IsSymlink())
	assert.Equal(t, uint64(200), got.Number())
}

func TestOpenByPathFollowsFinalSymlinkWhenConfigured(t *testing.T) {
	root, _, _ := buildRootWithSymlink(t)
	root.ctx.FollowFinal = true

	got, err := OpenByPath(root.ctx, root, "link")

	require.NoError(t, err)
	assert.False(t, got.IsSymlink())
	assert.Equal(t, uint64(300), got.Number())
}
