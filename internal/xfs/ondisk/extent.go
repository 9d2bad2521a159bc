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

// RawExtent holds the four fields packed into a 128-bit XFS extent
// record, still in their raw decoded form (the extent package wraps
// this into its public Extent type).
type RawExtent struct {
	Unwritten     bool
	LogicalBlock  uint64
	PhysicalBlock uint64
	BlockCount    uint64
}

// DecodeExtentRecord unpacks the bit layout from spec.md §4.5:
//
//	bit 127           : unwritten flag
//	bits 126..73 (54)  : logical block offset
//	bits 72..21  (52)  : physical block number
//	bits 20..0   (21)  : block count
//
// word0 holds bits 127..64, word1 holds bits 63..0.
func DecodeExtentRecord(word0, word1 uint64) RawExtent {
	unwritten := word0>>63 != 0

	// logical occupies the low 54 bits below the flag bit in word0 (63
	// bits available), using all of word0's remaining 63 bits plus the
	// top bit is the flag; logical is bits 126..73, i.e. the low 63 bits
	// of word0 shifted right by 9, keeping 54 bits.
	logical := (word0 & 0x7fffffffffffffff) >> 9

	// physical is the low 9 bits of word0 (bits 72..64) as the high part,
	// combined with the high 43 bits of word1 (bits 63..21).
	physicalHigh := word0 & 0x1ff
	physicalLow := word1 >> 21
	physical := (physicalHigh << 43) | physicalLow

	count := word1 & 0x1fffff

	return RawExtent{
		Unwritten:     unwritten,
		LogicalBlock:  logical,
		PhysicalBlock: physical,
		BlockCount:    count,
	}
}

// EncodeExtentRecord is the inverse of DecodeExtentRecord, used by tests
// to round-trip the bit layout.
func EncodeExtentRecord(e RawExtent) (word0, word1 uint64) {
	if e.Unwritten {
		word0 |= 1 << 63
	}
	word0 |= (e.LogicalBlock & 0x3fffffffffffff) << 9
	word0 |= (e.PhysicalBlock >> 43) & 0x1ff
	word1 = (e.PhysicalBlock & 0x7ffffffffff) << 21
	word1 |= e.BlockCount & 0x1fffff
	return word0, word1
}

// DecodeExtentSlice decodes a 16-byte packed extent record from a byte
// slice.
func DecodeExtentSlice(data []byte) (RawExtent, error) {
	if len(data) < SizeofExtentRecord {
		return RawExtent{}, xfserror.Newf(xfserror.Corrupt, "extent record: short buffer %d < %d", len(data), SizeofExtentRecord)
	}
	be := binary.BigEndian
	word0 := be.Uint64(data[0:8])
	word1 := be.Uint64(data[8:16])
	return DecodeExtentRecord(word0, word1), nil
}
