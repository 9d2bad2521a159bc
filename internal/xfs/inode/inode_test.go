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

package inode

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

func buildV2Inode(t *testing.T, size int, forkOffset uint8, mode uint16) []byte {
	t.Helper()
	data := make([]byte, size)
	be := binary.BigEndian
	copy(data[0:2], ondisk.MagicInode)
	be.PutUint16(data[2:4], mode)
	data[4] = 2
	data[5] = ondisk.FormatExtents
	be.PutUint32(data[16:20], 1)
	data[82] = forkOffset
	return data
}

func v2Geometry() *geometry.Geometry {
	return &geometry.Geometry{InodeSize: 256, CRCEnabled: false}
}

func TestDecodeInodeSplitsForksAtForkOffset(t *testing.T) {
	data := buildV2Inode(t, 256, 4, 0100644)

	in, err := Decode(128, data, v2Geometry(), nil)

	require.NoError(t, err)
	literalLen := 256 - ondisk.SizeofInodeCoreV1V2
	assert.Len(t, in.DataFork, 32)
	assert.Len(t, in.AttrFork, literalLen-32)
}

func TestDecodeInodeNoAttrForkWhenOffsetZero(t *testing.T) {
	data := buildV2Inode(t, 256, 0, 0100644)

	in, err := Decode(128, data, v2Geometry(), nil)

	require.NoError(t, err)
	assert.Nil(t, in.AttrFork)
	assert.Len(t, in.DataFork, 256-ondisk.SizeofInodeCoreV1V2)
}

func TestDecodeInodeModeBits(t *testing.T) {
	data := buildV2Inode(t, 256, 0, 0040755)

	in, err := Decode(1, data, v2Geometry(), nil)

	require.NoError(t, err)
	assert.True(t, in.IsDir())
	assert.False(t, in.IsSymlink())
}

func TestDecodeInodeRejectsCRCMismatchUnderFatalPolicy(t *testing.T) {
	data := make([]byte, ondisk.SizeofInodeCoreV3)
	be := binary.BigEndian
	copy(data[0:2], ondisk.MagicInode)
	data[4] = 3
	data[5] = ondisk.FormatExtents
	be.PutUint32(data[16:20], 1)

	g := &geometry.Geometry{InodeSize: uint16(ondisk.SizeofInodeCoreV3), CRCEnabled: true, Options: geometry.Options{CRCPolicy: geometry.CRCFatal}}

	_, err := Decode(1, data, g, nil)

	assert.Error(t, err)
}

func TestDecodeInodeWarnsOnCRCMismatchUnderWarnPolicy(t *testing.T) {
	data := make([]byte, ondisk.SizeofInodeCoreV3)
	be := binary.BigEndian
	copy(data[0:2], ondisk.MagicInode)
	data[4] = 3
	data[5] = ondisk.FormatExtents
	be.PutUint32(data[16:20], 1)

	g := &geometry.Geometry{InodeSize: uint16(ondisk.SizeofInodeCoreV3), CRCEnabled: true, Options: geometry.Options{CRCPolicy: geometry.CRCWarn}}

	var warned bool
	_, err := Decode(1, data, g, func(string, ...any) { warned = true })

	require.NoError(t, err)
	assert.True(t, warned)
}
