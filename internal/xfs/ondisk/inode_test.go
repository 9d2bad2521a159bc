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

package ondisk

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildV2InodeBytes(t *testing.T, mode uint16, size uint64, nlink uint32) []byte {
	t.Helper()
	data := make([]byte, SizeofInodeCoreV1V2)
	be := binary.BigEndian
	copy(data[0:2], MagicInode)
	be.PutUint16(data[2:4], mode)
	data[4] = 2 // version
	data[5] = FormatExtents
	be.PutUint32(data[8:12], 1000)  // owner
	be.PutUint32(data[12:16], 100) // group
	be.PutUint32(data[16:20], nlink)
	be.PutUint16(data[20:22], 7) // project id
	be.PutUint64(data[56:64], size)
	be.PutUint32(data[76:80], 2) // num data extents
	return data
}

func TestDecodeInodeCoreV2(t *testing.T) {
	data := buildV2InodeBytes(t, 0100644, 4096, 1)

	core, err := DecodeInodeCore(data)

	require.NoError(t, err)
	assert.EqualValues(t, 2, core.FormatVersion)
	assert.Equal(t, uint16(0100644), core.FileMode)
	assert.Equal(t, uint64(4096), core.Size)
	assert.Equal(t, uint32(1), core.LinkCount)
	assert.Equal(t, uint32(7), core.ProjectID)
	assert.False(t, core.HasCreationTime)
}

func TestDecodeInodeCoreRejectsBadSignature(t *testing.T) {
	data := buildV2InodeBytes(t, 0100644, 4096, 1)
	copy(data[0:2], "XX")

	_, err := DecodeInodeCore(data)

	assert.Error(t, err)
}

func TestDecodeInodeCoreRejectsUnknownVersion(t *testing.T) {
	data := buildV2InodeBytes(t, 0100644, 4096, 1)
	data[4] = 9

	_, err := DecodeInodeCore(data)

	assert.Error(t, err)
}

func TestTimestamp96Nanos(t *testing.T) {
	ts := Timestamp96{Seconds: 2, Nanoseconds: 500}
	assert.Equal(t, int64(2_000_000_500), ts.Nanos())
}
