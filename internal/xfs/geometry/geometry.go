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

// Package geometry parses the primary superblock and derives the
// immutable geometry constants every other xfs package relies on: block
// size, AG layout, inode addressing bit-widths, and the feature flags
// that select which on-disk variants a given image uses.
package geometry

import (
	"math/bits"

	"github.com/google/uuid"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// CRCPolicy controls how a v5 CRC mismatch is handled. It mirrors
// cfg.CRCPolicy but lives in this package to keep internal/xfs free of a
// dependency on the CLI's configuration types.
type CRCPolicy int

const (
	// CRCFatal makes a CRC mismatch a Corrupt error (the default for v5
	// images, resolving spec.md §9's open question).
	CRCFatal CRCPolicy = iota
	// CRCWarn logs a warning and proceeds to trust the structure anyway.
	CRCWarn
)

// Options configures how a volume's geometry is interpreted.
type Options struct {
	// CRCPolicy governs v5 checksum verification failures.
	CRCPolicy CRCPolicy
}

// Geometry holds the decoded superblock plus the derived constants used
// throughout the rest of the decoder.
type Geometry struct {
	Superblock *ondisk.Superblock
	Options    Options

	BlockSize      uint32
	InodeSize      uint16
	InodesPerBlock uint16
	AGBlocks       uint32
	AGCount        uint32

	// InodeBitsOffset, InodeBitsBlock, InodeBitsAG are the bit widths
	// used to split an absolute inode number into
	// (ag_index, block_in_ag, inode_in_block), per spec.md §4.3.
	InodeBitsOffset uint
	InodeBitsBlock  uint
	InodeBitsAG     uint

	CRCEnabled   bool
	Dir3         bool
	Attr2        bool
	ProjID32Bit  bool
	NLink32      bool
	FTypeEnabled bool
	SparseInodes bool
	Reflink      bool
	RmapEnabled  bool

	UUID uuid.UUID
}

// Open reads the primary superblock from src at offset 0 and computes
// the derived geometry.
func Open(src bytesource.Source, opts Options) (*Geometry, error) {
	buf := make([]byte, ondisk.SizeofSuperblock)
	if err := src.ReadAt(buf, 0); err != nil {
		return nil, xfserror.Wrap(xfserror.IO, err, "reading primary superblock")
	}

	sb, err := ondisk.DecodeSuperblock(buf)
	if err != nil {
		return nil, err
	}

	if unknown := ondisk.UnknownFeatureIncompatBits(sb.FeaturesIncompat); unknown != 0 {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: unknown incompat feature bits 0x%x", unknown)
	}

	if !isPowerOfTwo(sb.AGBlocks) {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: ag_blocks %d is not a power of two", sb.AGBlocks)
	}
	if !isPowerOfTwo(uint32(sb.InodesPerBlock)) {
		return nil, xfserror.Newf(xfserror.Corrupt, "superblock: inodes_per_block %d is not a power of two", sb.InodesPerBlock)
	}

	g := &Geometry{
		Superblock:      sb,
		Options:         opts,
		BlockSize:       sb.BlockSize,
		InodeSize:       sb.InodeSize,
		InodesPerBlock:  sb.InodesPerBlock,
		AGBlocks:        sb.AGBlocks,
		AGCount:         sb.AGCount,
		InodeBitsOffset: uint(bits.TrailingZeros32(uint32(sb.InodesPerBlock))),
		InodeBitsBlock:  uint(bits.Len32(sb.AGBlocks - 1)),
		UUID:            sb.UUID,
		CRCEnabled:      sb.IsV5(),
		Dir3:            sb.IsV5(),
		Attr2:           sb.FeaturesIncompat&0x01 != 0 || sb.IsV5(),
		FTypeEnabled:    sb.FeaturesIncompat&ondisk.FeatureIncompatFType != 0 || sb.IsV5(),
		SparseInodes:    sb.FeaturesIncompat&ondisk.FeatureIncompatSparseInode != 0,
		RmapEnabled:     sb.FeaturesROCompat&0x02 != 0,
		Reflink:         sb.FeaturesROCompat&0x04 != 0,
		ProjID32Bit:     sb.VersionNum&0x0800 != 0,
		NLink32:         sb.VersionNum&0x0010 != 0 || sb.IsV5(),
	}
	g.InodeBitsAG = 64 - g.InodeBitsBlock - g.InodeBitsOffset

	return g, nil
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// Locate maps an absolute inode number to its physical byte offset
// within the (already-windowed) volume byte source, per spec.md §4.3.
func (g *Geometry) Locate(ino uint64) (int64, error) {
	offsetMask := uint64(1)<<g.InodeBitsOffset - 1
	blockMask := uint64(1)<<g.InodeBitsBlock - 1

	inodeInBlock := ino & offsetMask
	blockInAG := (ino >> g.InodeBitsOffset) & blockMask
	agIndex := ino >> (g.InodeBitsOffset + g.InodeBitsBlock)

	if agIndex >= uint64(g.AGCount) {
		return 0, xfserror.Newf(xfserror.NotFound, "inode %d: ag index %d out of range [0,%d)", ino, agIndex, g.AGCount)
	}
	if blockInAG >= uint64(g.AGBlocks) {
		return 0, xfserror.Newf(xfserror.NotFound, "inode %d: block %d out of range [0,%d)", ino, blockInAG, g.AGBlocks)
	}
	if inodeInBlock >= uint64(g.InodesPerBlock) {
		return 0, xfserror.Newf(xfserror.NotFound, "inode %d: offset %d out of range [0,%d)", ino, inodeInBlock, g.InodesPerBlock)
	}

	agBlock := agIndex*uint64(g.AGBlocks) + blockInAG
	byteOffset := agBlock*uint64(g.BlockSize) + inodeInBlock*uint64(g.InodeSize)
	return int64(byteOffset), nil
}

// Pack is the inverse of Locate's bit-split, used by property tests.
func (g *Geometry) Pack(agIndex, blockInAG, inodeInBlock uint64) uint64 {
	return (agIndex << (g.InodeBitsOffset + g.InodeBitsBlock)) | (blockInAG << g.InodeBitsOffset) | inodeInBlock
}

// TotalAGBlocks returns ag_count * ag_blocks, the bound every absolute
// block number must respect.
func (g *Geometry) TotalAGBlocks() uint64 {
	return uint64(g.AGCount) * uint64(g.AGBlocks)
}
