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

// ShortformAttrHeader is the header of an inline ("local") attribute
// fork.
type ShortformAttrHeader struct {
	TotalSize  uint16
	EntryCount uint8
}

// DecodeShortformAttrHeader decodes the 4-byte short-form attribute fork
// header: total size (2 bytes), entry count (1 byte), padding (1 byte).
func DecodeShortformAttrHeader(data []byte) (*ShortformAttrHeader, error) {
	if len(data) < 4 {
		return nil, xfserror.Newf(xfserror.Corrupt, "shortform attr header: short buffer %d < 4", len(data))
	}
	be := binary.BigEndian
	return &ShortformAttrHeader{
		TotalSize:  be.Uint16(data[0:2]),
		EntryCount: data[2],
	}, nil
}

// Attribute namespace flags, packed into a short-form/leaf entry's flags
// byte.
const (
	AttrFlagLocal  uint8 = 1 << 0
	AttrFlagRoot   uint8 = 1 << 1
	AttrFlagSecure uint8 = 1 << 2
	AttrFlagIncomplete uint8 = 1 << 7
)

// AttrLeafHeader is the header of a leaf/node attribute block.
type AttrLeafHeader struct {
	Magic string
	Count uint16
}

// DecodeAttrLeafHeader decodes an attribute leaf block header.
func DecodeAttrLeafHeader(data []byte) (*AttrLeafHeader, error) {
	if len(data) < 8 {
		return nil, xfserror.Newf(xfserror.Corrupt, "attr leaf header: short buffer %d < 8", len(data))
	}
	magic := string(data[0:4])
	switch magic {
	case MagicAttrLeaf, MagicAttr3Leaf:
	default:
		return nil, xfserror.Newf(xfserror.Corrupt, "attr leaf header: unknown magic %q", magic)
	}
	be := binary.BigEndian
	return &AttrLeafHeader{
		Magic: magic,
		Count: be.Uint16(data[4:6]),
	}, nil
}

// ShortformAttrEntry is one entry in a short-form attribute fork's
// packed entry list.
type ShortformAttrEntry struct {
	Flags  uint8
	Name   []byte
	Value  []byte
	Length int
}

// DecodeShortformAttrEntry decodes one short-form entry: namelen(1)
// valuelen(1) flags(1) name[namelen] value[valuelen].
func DecodeShortformAttrEntry(data []byte) (ShortformAttrEntry, error) {
	if len(data) < 3 {
		return ShortformAttrEntry{}, xfserror.Newf(xfserror.Corrupt, "shortform attr entry: short buffer %d < 3", len(data))
	}
	nameLen := int(data[0])
	valueLen := int(data[1])
	flags := data[2]
	total := 3 + nameLen + valueLen
	if len(data) < total {
		return ShortformAttrEntry{}, xfserror.Newf(xfserror.Corrupt, "shortform attr entry: short buffer %d < %d", len(data), total)
	}
	return ShortformAttrEntry{
		Flags:  flags,
		Name:   data[3 : 3+nameLen],
		Value:  data[3+nameLen : total],
		Length: total,
	}, nil
}

// AttrLeafEntry is one (hash, name-index, flags) index entry in an
// attribute leaf block, pointing into the same block's name area.
type AttrLeafEntry struct {
	Hash    uint32
	NameIdx uint16
	Flags   uint8
}

// DecodeAttrLeafEntry decodes one 8-byte attribute leaf index entry:
// hashval(4) nameidx(2) flags(1) pad(1).
func DecodeAttrLeafEntry(data []byte) (AttrLeafEntry, error) {
	if len(data) < 8 {
		return AttrLeafEntry{}, xfserror.Newf(xfserror.Corrupt, "attr leaf entry: short buffer %d < 8", len(data))
	}
	be := binary.BigEndian
	return AttrLeafEntry{
		Hash:    be.Uint32(data[0:4]),
		NameIdx: be.Uint16(data[4:6]),
		Flags:   data[6],
	}, nil
}

// AttrLeafNameLocal is a leaf block's inline (local) name/value pair.
type AttrLeafNameLocal struct {
	Name   []byte
	Value  []byte
	Length int
}

// DecodeAttrLeafNameLocal decodes: valuelen(2) namelen(1) name value.
func DecodeAttrLeafNameLocal(data []byte) (AttrLeafNameLocal, error) {
	if len(data) < 3 {
		return AttrLeafNameLocal{}, xfserror.Newf(xfserror.Corrupt, "attr leaf local value: short buffer %d < 3", len(data))
	}
	be := binary.BigEndian
	valueLen := int(be.Uint16(data[0:2]))
	nameLen := int(data[2])
	total := 3 + nameLen + valueLen
	if len(data) < total {
		return AttrLeafNameLocal{}, xfserror.Newf(xfserror.Corrupt, "attr leaf local value: short buffer %d < %d", len(data), total)
	}
	return AttrLeafNameLocal{
		Name:   data[3 : 3+nameLen],
		Value:  data[3+nameLen : total],
		Length: total,
	}, nil
}

// AttrLeafNameRemote is a leaf block's out-of-line (remote) name entry:
// the value itself lives in separate filesystem blocks named by
// ValueBlock, read through the extent machinery.
type AttrLeafNameRemote struct {
	ValueBlock uint32
	ValueLen   uint32
	Name       []byte
	Length     int
}

// DecodeAttrLeafNameRemote decodes: valueblk(4) valuelen(4) namelen(1) name.
func DecodeAttrLeafNameRemote(data []byte) (AttrLeafNameRemote, error) {
	if len(data) < 9 {
		return AttrLeafNameRemote{}, xfserror.Newf(xfserror.Corrupt, "attr leaf remote value: short buffer %d < 9", len(data))
	}
	be := binary.BigEndian
	nameLen := int(data[8])
	total := 9 + nameLen
	if len(data) < total {
		return AttrLeafNameRemote{}, xfserror.Newf(xfserror.Corrupt, "attr leaf remote value: short buffer %d < %d", len(data), total)
	}
	return AttrLeafNameRemote{
		ValueBlock: be.Uint32(data[0:4]),
		ValueLen:   be.Uint32(data[4:8]),
		Name:       data[9:total],
		Length:     total,
	}, nil
}
