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

// Package extent resolves a file's logical block offsets to physical
// block numbers, from either a flat extent list (FormatExtents) or a
// block-map btree (FormatBtree), and streams file content through
// bytesource.Source accordingly.
package extent

import (
	"sort"

	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

// Extent is the public, already-unpacked view of one extent record.
type Extent struct {
	Unwritten     bool
	LogicalBlock  uint64
	PhysicalBlock uint64
	BlockCount    uint64
}

// End returns the logical block immediately past this extent.
func (e Extent) End() uint64 { return e.LogicalBlock + e.BlockCount }

// DecodeExtent unpacks the 128-bit packed extent record held in two
// big-endian 64-bit words.
func DecodeExtent(word0, word1 uint64) Extent {
	raw := ondisk.DecodeExtentRecord(word0, word1)
	return Extent{
		Unwritten:     raw.Unwritten,
		LogicalBlock:  raw.LogicalBlock,
		PhysicalBlock: raw.PhysicalBlock,
		BlockCount:    raw.BlockCount,
	}
}

// Resolver maps a logical file block to the extent covering it.
type Resolver interface {
	Resolve(logical uint64) (Extent, bool)
}

// List is a Resolver over an in-memory, logically-sorted extent slice,
// used for the FormatExtents fork case.
type List []Extent

// NewList sorts extents by LogicalBlock and returns them as a List.
func NewList(extents []Extent) List {
	l := make(List, len(extents))
	copy(l, extents)
	sort.Slice(l, func(i, j int) bool { return l[i].LogicalBlock < l[j].LogicalBlock })
	return l
}

// Resolve binary-searches for the extent covering logical, returning
// false if logical falls in a hole (sparse file) or past the last
// extent.
func (l List) Resolve(logical uint64) (Extent, bool) {
	i := sort.Search(len(l), func(i int) bool { return l[i].End() > logical })
	if i == len(l) || l[i].LogicalBlock > logical {
		return Extent{}, false
	}
	return l[i], true
}

// DecodeList decodes a contiguous run of 16-byte packed extent records,
// as found in an inode's data fork literal area under FormatExtents.
func DecodeList(data []byte) (List, error) {
	n := len(data) / ondisk.SizeofExtentRecord
	extents := make([]Extent, 0, n)
	for i := 0; i < n; i++ {
		rec := data[i*ondisk.SizeofExtentRecord : (i+1)*ondisk.SizeofExtentRecord]
		raw, err := ondisk.DecodeExtentSlice(rec)
		if err != nil {
			return nil, err
		}
		extents = append(extents, Extent{
			Unwritten:     raw.Unwritten,
			LogicalBlock:  raw.LogicalBlock,
			PhysicalBlock: raw.PhysicalBlock,
			BlockCount:    raw.BlockCount,
		})
	}
	return NewList(extents), nil
}
