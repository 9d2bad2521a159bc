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
	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Btree is a Resolver backed by a block-map btree (bmbt): a root block
// embedded in the inode's data fork literal area, descending through
// intermediate node blocks to leaf blocks holding packed extent
// records.
type Btree struct {
	src        bytesource.Source
	g          *geometry.Geometry
	rootLevel  uint16
	rootRecs   []byte // raw bytes of the root block's key/pointer or leaf area
	rootHeader *ondisk.BtreeBlockHeader
}

// NewBtree parses the root block embedded in data (an inode's data fork
// literal bytes under FormatBtree: a short header followed by keys and
// pointers, not full block-sized).
func NewBtree(src bytesource.Source, g *geometry.Geometry, data []byte) (*Btree, error) {
	header, err := ondisk.DecodeBtreeBlockHeader(data)
	if err != nil {
		return nil, err
	}
	headerSize := ondisk.SizeofBtreeBlockHeaderV4
	if header.IsV5 {
		headerSize = ondisk.SizeofBtreeBlockHeaderV5
	}
	return &Btree{
		src:        src,
		g:          g,
		rootLevel:  header.Level,
		rootRecs:   data[headerSize:],
		rootHeader: header,
	}, nil
}

// Resolve descends the btree looking for the extent covering logical,
// bounding descent to RootHeader.Level+1 steps so a corrupt sibling
// pointer cycle cannot spin forever.
func (b *Btree) Resolve(logical uint64) (Extent, bool) {
	maxDepth := int(b.rootLevel) + 1

	blockNum, isLeafRoot, ok := b.descendRoot(logical)
	if isLeafRoot {
		return b.scanLeafBytes(b.rootRecs, logical)
	}
	if !ok {
		return Extent{}, false
	}

	for depth := 0; depth < maxDepth; depth++ {
		block, header, err := b.readBlock(blockNum)
		if err != nil {
			return Extent{}, false
		}
		headerSize := ondisk.SizeofBtreeBlockHeaderV4
		if header.IsV5 {
			headerSize = ondisk.SizeofBtreeBlockHeaderV5
		}
		body := block[headerSize:]

		if header.Level == 0 {
			return b.scanLeafBytes(body[:int(header.NumRecs)*ondisk.SizeofExtentRecord], logical)
		}

		next, ok := descendNode(body, int(header.NumRecs), logical)
		if !ok {
			return Extent{}, false
		}
		blockNum = next
	}
	return Extent{}, false
}

// descendRoot inspects the root block's own level: a level-0 root is
// itself a leaf of packed extent records (the whole fork fit in one
// block); otherwise it returns the child pointer to follow.
func (b *Btree) descendRoot(logical uint64) (blockNum uint64, isLeaf bool, ok bool) {
	if b.rootHeader.Level == 0 {
		return 0, true, true
	}
	next, ok := descendNode(b.rootRecs, len(b.rootRecs)/16, logical)
	return next, false, ok
}

// descendNode reads numRecs (key, pointer) pairs from body — keys
// first, then pointers, each 8 bytes, per the bmbt node layout — and
// returns the pointer for the last key <= logical.
func descendNode(body []byte, numRecs int, logical uint64) (uint64, bool) {
	if numRecs <= 0 || len(body) < numRecs*16 {
		return 0, false
	}
	keys := body[:numRecs*8]
	ptrs := body[numRecs*8 : numRecs*16]

	chosen := -1
	for i := 0; i < numRecs; i++ {
		key, err := ondisk.DecodeBtreeKey(keys[i*8 : i*8+8])
		if err != nil {
			return 0, false
		}
		if key > logical {
			break
		}
		chosen = i
	}
	if chosen < 0 {
		chosen = 0
	}
	ptr, err := ondisk.DecodeBtreePointer(ptrs[chosen*8 : chosen*8+8])
	if err != nil {
		return 0, false
	}
	return ptr, true
}

func (b *Btree) scanLeafBytes(data []byte, logical uint64) (Extent, bool) {
	n := len(data) / ondisk.SizeofExtentRecord
	for i := 0; i < n; i++ {
		rec := data[i*ondisk.SizeofExtentRecord : (i+1)*ondisk.SizeofExtentRecord]
		raw, err := ondisk.DecodeExtentSlice(rec)
		if err != nil {
			continue
		}
		e := Extent{Unwritten: raw.Unwritten, LogicalBlock: raw.LogicalBlock, PhysicalBlock: raw.PhysicalBlock, BlockCount: raw.BlockCount}
		if logical >= e.LogicalBlock && logical < e.End() {
			return e, true
		}
	}
	return Extent{}, false
}

func (b *Btree) readBlock(blockNum uint64) ([]byte, *ondisk.BtreeBlockHeader, error) {
	if blockNum >= b.g.TotalAGBlocks() {
		return nil, nil, xfserror.Newf(xfserror.Corrupt, "bmbt: block %d exceeds volume extent %d", blockNum, b.g.TotalAGBlocks())
	}
	buf := make([]byte, b.g.BlockSize)
	off := int64(blockNum) * int64(b.g.BlockSize)
	if err := b.src.ReadAt(buf, off); err != nil {
		return nil, nil, err
	}
	header, err := ondisk.DecodeBtreeBlockHeader(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf, header, nil
}
