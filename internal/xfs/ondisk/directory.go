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

// ShortformDirHeader is the inline ("local" fork) directory header.
type ShortformDirHeader struct {
	EntryCount  uint8
	I8Count     uint8
	ParentInode uint64
	// HeaderLen is the number of bytes consumed by the header, including
	// the parent inode field (4 or 8 bytes depending on I8Count).
	HeaderLen int
}

// DecodeShortformDirHeader decodes the short-form directory header:
// entry count (1 byte), i8count (1 byte), then the parent inode encoded
// as 8 bytes if i8count != 0, else 4 bytes.
func DecodeShortformDirHeader(data []byte) (*ShortformDirHeader, error) {
	if len(data) < 6 {
		return nil, xfserror.Newf(xfserror.Corrupt, "shortform dir header: short buffer %d < 6", len(data))
	}
	be := binary.BigEndian
	h := &ShortformDirHeader{
		EntryCount: data[0],
		I8Count:    data[1],
	}
	if h.I8Count != 0 {
		if len(data) < 10 {
			return nil, xfserror.Newf(xfserror.Corrupt, "shortform dir header: short buffer for i8 parent %d < 10", len(data))
		}
		h.ParentInode = be.Uint64(data[2:10])
		h.HeaderLen = 10
	} else {
		h.ParentInode = uint64(be.Uint32(data[2:6]))
		h.HeaderLen = 6
	}
	return h, nil
}

// Dir2DataHeader is the header of a block/leaf/node directory data
// block.
type Dir2DataHeader struct {
	Magic string
}

// DecodeDir2DataHeader decodes a directory data block's 4-byte magic
// (plus, for v5/dir3, a larger CRC-protected header the caller slices
// separately).
func DecodeDir2DataHeader(data []byte) (*Dir2DataHeader, error) {
	if len(data) < 4 {
		return nil, xfserror.Newf(xfserror.Corrupt, "dir2 data header: short buffer %d < 4", len(data))
	}
	magic := string(data[0:4])
	switch magic {
	case MagicDir2Data, MagicDir3Data, MagicDir2DataFree, MagicDir3DataFree:
		return &Dir2DataHeader{Magic: magic}, nil
	default:
		return nil, xfserror.Newf(xfserror.Corrupt, "dir2 data header: unknown magic %q", magic)
	}
}

// Dir2LeafHeader is the header of a leaf/node directory hash-index
// block.
type Dir2LeafHeader struct {
	Magic     string
	Count     uint16
	Stale     uint16
}

// DecodeDir2LeafHeader decodes a leaf block header: 4-byte magic, then
// count/stale 16-bit fields (the v5 variant's CRC/UUID/blkno/lsn fields
// widen the header but do not move these first fields).
func DecodeDir2LeafHeader(data []byte) (*Dir2LeafHeader, error) {
	if len(data) < 8 {
		return nil, xfserror.Newf(xfserror.Corrupt, "dir2 leaf header: short buffer %d < 8", len(data))
	}
	magic := string(data[0:4])
	switch magic {
	case MagicDir2Leaf1, MagicDir3Leaf1, MagicDir2LeafN, MagicDir3LeafN:
	default:
		return nil, xfserror.Newf(xfserror.Corrupt, "dir2 leaf header: unknown magic %q", magic)
	}
	be := binary.BigEndian
	return &Dir2LeafHeader{
		Magic: magic,
		Count: be.Uint16(data[4:6]),
		Stale: be.Uint16(data[6:8]),
	}, nil
}

// DirLeafEntry is one (hash, address) pair in a leaf/node hash index,
// used for both directory and attribute leaf blocks.
type DirLeafEntry struct {
	Hash    uint32
	Address uint32
}

// DecodeDirLeafEntry decodes one 8-byte hash-index entry.
func DecodeDirLeafEntry(data []byte) (DirLeafEntry, error) {
	if len(data) < 8 {
		return DirLeafEntry{}, xfserror.Newf(xfserror.Corrupt, "dir leaf entry: short buffer %d < 8", len(data))
	}
	be := binary.BigEndian
	return DirLeafEntry{Hash: be.Uint32(data[0:4]), Address: be.Uint32(data[4:8])}, nil
}

// ShortformDirEntry is one entry in a short-form directory's packed
// entry list: namelen (1 byte), the name bytes, an ftype byte when the
// filesystem has the ftype feature, then a 4- or 8-byte inode number.
type ShortformDirEntry struct {
	Name   []byte
	FType  uint8
	Inode  uint64
	Length int // bytes this entry occupies, for advancing the cursor
}

// DecodeShortformDirEntry decodes one short-form entry starting at
// data[0]. i8 selects the 8-byte inode encoding; ftype selects whether
// a file-type byte precedes the inode number.
func DecodeShortformDirEntry(data []byte, i8, ftype bool) (ShortformDirEntry, error) {
	if len(data) < 1 {
		return ShortformDirEntry{}, xfserror.Newf(xfserror.Corrupt, "shortform dir entry: empty buffer")
	}
	nameLen := int(data[0])
	// namelen(1) + offset(2) + name + [ftype(1)] + inode(4 or 8)
	inodeLen := 4
	if i8 {
		inodeLen = 8
	}
	ftypeLen := 0
	if ftype {
		ftypeLen = 1
	}
	total := 1 + 2 + nameLen + ftypeLen + inodeLen
	if len(data) < total {
		return ShortformDirEntry{}, xfserror.Newf(xfserror.Corrupt, "shortform dir entry: short buffer %d < %d", len(data), total)
	}
	name := data[3 : 3+nameLen]
	cursor := 3 + nameLen
	var ft uint8
	if ftype {
		ft = data[cursor]
		cursor++
	}
	be := binary.BigEndian
	var ino uint64
	if i8 {
		ino = be.Uint64(data[cursor : cursor+8])
	} else {
		ino = uint64(be.Uint32(data[cursor : cursor+4]))
	}
	return ShortformDirEntry{Name: name, FType: ft, Inode: ino, Length: total}, nil
}

// Dir2DataEntry is one live entry in a block/leaf/node directory data
// block. A free (unused) region is tagged by a leading 16-bit 0xffff
// and is skipped by callers.
type Dir2DataEntry struct {
	Inode  uint64
	Name   []byte
	FType  uint8
	Length int // total bytes this entry occupies, 8-byte aligned
}

const dir2DataFreeTag = 0xffff

// DecodeDir2DataEntry decodes one entry or free region starting at
// data[0]: inode(8) name_len(1) name ftype(1 if enabled) pad tag(2).
// isFree reports whether this was a free region (to be skipped) rather
// than a live entry. A free region's xfs_dir2_data_unused.freetag is a
// 16-bit 0xffff at data[0:2], immediately followed by its 16-bit length
// at data[2:4]; only a live entry occupies the full 8-byte inode field.
func DecodeDir2DataEntry(data []byte, ftype bool) (entry Dir2DataEntry, isFree bool, err error) {
	be := binary.BigEndian
	if len(data) < 8 {
		return Dir2DataEntry{}, false, xfserror.Newf(xfserror.Corrupt, "dir2 data entry: short buffer %d < 8", len(data))
	}
	if be.Uint16(data[0:2]) == dir2DataFreeTag {
		length := int(be.Uint16(data[2:4]))
		return Dir2DataEntry{Length: length}, true, nil
	}

	ino := be.Uint64(data[0:8])
	if len(data) < 9 {
		return Dir2DataEntry{}, false, xfserror.Newf(xfserror.Corrupt, "dir2 data entry: short buffer for namelen")
	}
	nameLen := int(data[8])
	cursor := 9 + nameLen
	var ft uint8
	if ftype {
		if len(data) < cursor+1 {
			return Dir2DataEntry{}, false, xfserror.Newf(xfserror.Corrupt, "dir2 data entry: short buffer for ftype")
		}
		ft = data[cursor]
		cursor++
	}
	// Entries are padded to 8-byte alignment; the tag occupies the last
	// 2 bytes of the padded entry.
	unaligned := cursor + 2
	length := (unaligned + 7) &^ 7
	if len(data) < length {
		return Dir2DataEntry{}, false, xfserror.Newf(xfserror.Corrupt, "dir2 data entry: short buffer %d < %d", len(data), length)
	}
	return Dir2DataEntry{Inode: ino, Name: data[9 : 9+nameLen], FType: ft, Length: length}, false, nil
}
