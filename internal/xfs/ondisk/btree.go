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

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// BtreeBlockHeader is the header shared by every block-map btree
// (bmbt) node or leaf block, v4 or v5.
type BtreeBlockHeader struct {
	Magic     string
	Level     uint16
	NumRecs   uint16
	LeftSib   uint64
	RightSib  uint64
	IsV5      bool
}

// DecodeBtreeBlockHeader decodes the bmbt block header, choosing the v4
// (24-byte, 64-bit sibling pointers) or v5 (64-byte, 64-bit sibling
// pointers plus CRC/UUID/owner/lsn) layout by magic.
func DecodeBtreeBlockHeader(data []byte) (*BtreeBlockHeader, error) {
	if len(data) < SizeofBtreeBlockHeaderV4 {
		return nil, xfserror.Newf(xfserror.Corrupt, "btree block header: short buffer %d < %d", len(data), SizeofBtreeBlockHeaderV4)
	}
	magic := string(data[0:4])
	be := binary.BigEndian

	switch magic {
	case MagicBtreeBlockV4:
		return &BtreeBlockHeader{
			Magic:    magic,
			Level:    be.Uint16(data[4:6]),
			NumRecs:  be.Uint16(data[6:8]),
			LeftSib:  be.Uint64(data[8:16]),
			RightSib: be.Uint64(data[16:24]),
		}, nil
	case MagicBtreeBlockV5:
		if len(data) < SizeofBtreeBlockHeaderV5 {
			return nil, xfserror.Newf(xfserror.Corrupt, "btree block header: short buffer for v5 %d < %d", len(data), SizeofBtreeBlockHeaderV5)
		}
		return &BtreeBlockHeader{
			Magic:    magic,
			Level:    be.Uint16(data[4:6]),
			NumRecs:  be.Uint16(data[6:8]),
			LeftSib:  be.Uint64(data[8:16]),
			RightSib: be.Uint64(data[16:24]),
			IsV5:     true,
		}, nil
	default:
		return nil, xfserror.Newf(xfserror.Corrupt, "btree block header: unknown magic %q", magic)
	}
}

// BtreeKeyPtr is one (startoff, pointer) pair in a non-leaf bmbt node.
type BtreeKeyPtr struct {
	StartOff uint64
	Pointer  uint64
}

// DecodeBtreeKey decodes a single 8-byte bmbt key (a logical block
// offset with its own high "extent flag" bit cleared for keys, unlike
// extent records).
func DecodeBtreeKey(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, xfserror.Newf(xfserror.Corrupt, "btree key: short buffer %d < 8", len(data))
	}
	return binary.BigEndian.Uint64(data[0:8]) &^ (1 << 63), nil
}

// DecodeBtreePointer decodes a single 8-byte bmbt child block pointer
// (an absolute filesystem block number).
func DecodeBtreePointer(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, xfserror.Newf(xfserror.Corrupt, "btree pointer: short buffer %d < 8", len(data))
	}
	return binary.BigEndian.Uint64(data[0:8]), nil
}
