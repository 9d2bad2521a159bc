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

// Package ondisk holds pure, allocation-free decode functions from
// fixed-size big-endian byte slices to typed on-disk records: the
// superblock, per-AG headers, the inode core, extent/btree block
// headers, and directory/attribute block headers. No package here
// performs I/O; callers slice bytes out of a bytesource.Source and hand
// them to the matching Decode function.
package ondisk

// Magic numbers identifying each on-disk structure family.
const (
	MagicSuperblock   = "XFSB"
	MagicAGF          = "XAGF"
	MagicAGI          = "XAGI"
	MagicInode        = "IN"
	MagicBtreeBlockV4 = "BMAP"
	MagicBtreeBlockV5 = "BMA3"
	MagicDir2Data     = "XD2D"
	MagicDir3Data     = "XDD3"
	MagicDir2DataFree = "XD2F"
	MagicDir3DataFree = "XDF3"
	MagicDir2Leaf1    = "XD2L"
	MagicDir3Leaf1    = "3DL2"
	MagicDir2LeafN    = "XD2N"
	MagicDir3LeafN    = "3DLF"
	MagicAttrLeaf     = "XALF"
	MagicAttr3Leaf    = "3ALF"
)

// Superblock feature-incompat bits this library understands; any other
// bit set makes the filesystem Corrupt rather than merely warned
// about, per spec.md §4.2.
const (
	FeatureIncompatFType       uint32 = 1 << 0
	FeatureIncompatSparseInode uint32 = 1 << 2
	FeatureIncompatMetaUUID    uint32 = 1 << 3
	FeatureIncompatBigTime     uint32 = 1 << 4
	FeatureIncompatNeedsRepair uint32 = 1 << 5
	FeatureIncompatNRext64     uint32 = 1 << 6
	FeatureIncompatExchRange   uint32 = 1 << 7
	FeatureIncompatParent      uint32 = 1 << 8
)

var knownFeatureIncompatBits = FeatureIncompatFType |
	FeatureIncompatSparseInode |
	FeatureIncompatMetaUUID |
	FeatureIncompatBigTime |
	FeatureIncompatNeedsRepair |
	FeatureIncompatNRext64 |
	FeatureIncompatExchRange |
	FeatureIncompatParent

// UnknownFeatureIncompatBits returns the subset of bits set in v that
// this library does not recognize.
func UnknownFeatureIncompatBits(v uint32) uint32 {
	return v &^ knownFeatureIncompatBits
}

// Inode format tags (di_format / di_aformat).
const (
	FormatDev = iota
	FormatLocal
	FormatExtents
	FormatBtree
	FormatUUID
	FormatRmap
)

// Superblock version (sb_versionnum low nibble) and the v5 marker.
const (
	SBVersion5 = 5
)

const (
	SizeofSuperblock = 264

	SizeofAGF = 224
	SizeofAGI = 208

	// SizeofInodeCoreV1V2 is the size of the common inode core fields
	// shared by format versions 1 and 2 (no v3/v5 CRC extension).
	SizeofInodeCoreV1V2 = 96
	// SizeofInodeCoreV3 is the size of the v3 inode core, which appends
	// the CRC, change count, LSN, flags2, cow extent size hint, crtime,
	// absolute inode number, and UUID fields.
	SizeofInodeCoreV3 = 176

	SizeofExtentRecord = 16

	SizeofBtreeBlockHeaderV4 = 24
	SizeofBtreeBlockHeaderV5 = 64

	// SizeofDir2DataBlockHeader and SizeofDir3DataBlockHeader are the
	// byte offsets at which a directory data block's entry list begins,
	// for the v4 (XD2D) and v5/CRC (XDD3) block formats respectively.
	SizeofDir2DataBlockHeader = 16
	SizeofDir3DataBlockHeader = 64

	// SizeofDir2LeafBlockHeader and SizeofDir3LeafBlockHeader are the
	// byte offsets at which a leaf block's hash-index entries begin.
	SizeofDir2LeafBlockHeader = 16
	SizeofDir3LeafBlockHeader = 64

	// Dir2LeafOffset is the fixed logical byte offset (32GiB) at which
	// the "leaf" directory format's separate hash-index block lives,
	// addressed through the same data-fork extent map as the directory's
	// data blocks.
	Dir2LeafOffset = 32 * 1024 * 1024 * 1024
)
