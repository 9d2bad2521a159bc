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

	"github.com/google/uuid"

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Superblock is the decoded primary (or secondary) XFS superblock.
type Superblock struct {
	UUID uuid.UUID

	BlockSize      uint32
	TotalBlocks    uint64
	AGBlocks       uint32
	AGCount        uint32
	InodeSize      uint16
	InodesPerBlock uint16
	SectorSize     uint16

	RootInode uint64

	VersionNum        uint16
	FeaturesIncompat  uint32
	FeaturesIncompat2 uint32
	FeaturesCompat    uint32
	FeaturesROCompat  uint32
	FeaturesLog       uint32

	Label [12]byte
}

// IsV5 reports whether the superblock's low version nibble is 5, the
// CRC-protected on-disk format.
func (s *Superblock) IsV5() bool {
	return s.VersionNum&0xf == SBVersion5
}

// DecodeSuperblock decodes the fixed-size primary/secondary superblock
// record. data must be at least SizeofSuperblock bytes.
func DecodeSuperblock(data []byte) (*Superblock, error) {
	if len(data) < SizeofSuperblock {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: short buffer %d < %d", len(data), SizeofSuperblock)
	}
	if string(data[0:4]) != MagicSuperblock {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: bad magic %q", data[0:4])
	}

	be := binary.BigEndian
	sb := &Superblock{
		BlockSize:      be.Uint32(data[4:8]),
		TotalBlocks:    be.Uint64(data[8:16]),
		SectorSize:     be.Uint16(data[102:104]),
		InodeSize:      be.Uint16(data[104:106]),
		InodesPerBlock: be.Uint16(data[106:108]),
		AGBlocks:       be.Uint32(data[84:88]),
		AGCount:        be.Uint32(data[88:92]),
		RootInode:      be.Uint64(data[56:64]),
		VersionNum:     be.Uint16(data[100:102]),
	}
	copy(sb.UUID[:], data[32:48])
	copy(sb.Label[:], data[108:120])

	sb.FeaturesCompat = be.Uint32(data[194:198])
	sb.FeaturesROCompat = be.Uint32(data[198:202])
	sb.FeaturesIncompat = be.Uint32(data[202:206])
	sb.FeaturesLog = be.Uint32(data[206:210])
	if len(data) >= 264 {
		sb.FeaturesIncompat2 = be.Uint32(data[260:264])
	}

	if sb.BlockSize == 0 || sb.BlockSize&(sb.BlockSize-1) != 0 {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: block size %d is not a power of two", sb.BlockSize)
	}
	if sb.AGCount == 0 {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: ag_count is zero")
	}

	return sb, nil
}
