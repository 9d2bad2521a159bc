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

package directory

import (
	"context"
	"sync/atomic"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/namehash"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

// blockLikeReader reads the "block" and "leaf" directory layouts: one
// or more fixed-size data blocks addressed through a Resolver, each
// holding a packed run of live and free directory-entry regions. When
// the leaf format's separate hash-index block is present, Lookup reads
// through it instead of scanning every data block.
type blockLikeReader struct {
	resolver    extent.Resolver
	src         bytesource.Source
	g           *geometry.Geometry
	abort       *atomic.Bool
	opts        Options
	parentInode uint64
	blockCount  uint64
}

func newBlockLikeReader(resolver extent.Resolver, src bytesource.Source, g *geometry.Geometry, ino *inode.Inode, abort *atomic.Bool, opts Options) (*blockLikeReader, error) {
	blockCount := (ino.Core.Size + uint64(g.BlockSize) - 1) / uint64(g.BlockSize)
	return &blockLikeReader{
		resolver:   resolver,
		src:        src,
		g:          g,
		abort:      abort,
		opts:       opts,
		blockCount: blockCount,
	}, nil
}

func (r *blockLikeReader) readDataBlock(logicalBlock uint64) ([]byte, int, bool, error) {
	ext, ok := r.resolver.Resolve(logicalBlock)
	if !ok {
		return nil, 0, false, nil
	}
	buf := make([]byte, r.g.BlockSize)
	physBlock := ext.PhysicalBlock + (logicalBlock - ext.LogicalBlock)
	off := int64(physBlock) * int64(r.g.BlockSize)
	if err := r.src.ReadAt(buf, off); err != nil {
		return nil, 0, false, err
	}
	header, err := ondisk.DecodeDir2DataHeader(buf)
	if err != nil {
		// Not a data block (could be the leaf-format's separate hash
		// block sharing the same logical range); skip it.
		return nil, 0, false, nil
	}
	headerSize := ondisk.SizeofDir2DataBlockHeader
	switch header.Magic {
	case ondisk.MagicDir3Data, ondisk.MagicDir3DataFree:
		headerSize = ondisk.SizeofDir3DataBlockHeader
	}
	return buf, headerSize, true, nil
}

// Enumerate walks every live entry across the directory's data blocks
// in logical order. "." and ".." are included only when
// Options.IncludeDotEntries is set: block/leaf/node directories
// (unlike short-form) store those two entries inline with real inode
// numbers, so suppressing them here is filtering, not synthesis.
func (r *blockLikeReader) Enumerate(ctx context.Context, fn func(Entry) error) error {
	return r.enumerateRaw(ctx, func(e Entry) error {
		if (e.Name == "." || e.Name == "..") && !r.opts.IncludeDotEntries {
			return nil
		}
		return fn(e)
	})
}

// Lookup resolves name through the leaf/node formats' separate
// hash-index block when one exists, reading only the data-block entries
// the matching hash values point at rather than the whole directory.
// The single-block "block" format has no such index (data and index
// share one block) and falls back to a full scan.
func (r *blockLikeReader) Lookup(ctx context.Context, name []byte) (Entry, bool, error) {
	leaf, err := r.readLeaf()
	if err != nil {
		return Entry{}, false, err
	}
	if leaf == nil {
		return r.lookupByScan(ctx, name)
	}

	target := namehash.Compute(name)
	for _, le := range leaf {
		if err := pollAbort(r.abort); err != nil {
			return Entry{}, false, err
		}
		select {
		case <-ctx.Done():
			return Entry{}, false, ctx.Err()
		default:
		}

		if le.Hash != target {
			continue
		}
		e, ok, err := r.entryAt(le.Address)
		if err != nil {
			return Entry{}, false, err
		}
		if ok && e.Name == string(name) {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// lookupByScan finds name by enumerating every live entry, used when no
// separate hash-index block exists.
func (r *blockLikeReader) lookupByScan(ctx context.Context, name []byte) (Entry, bool, error) {
	var found Entry
	var ok bool
	err := r.enumerateRaw(ctx, func(e Entry) error {
		if e.Name == string(name) {
			found, ok = e, true
		}
		return nil
	})
	return found, ok, err
}

// readLeaf locates and decodes the leaf format's separate hash-index
// block at the fixed logical offset ondisk.Dir2LeafOffset, returning a
// nil slice (not an error) when the directory's extent map has no block
// there.
func (r *blockLikeReader) readLeaf() ([]ondisk.DirLeafEntry, error) {
	leafBlock := uint64(ondisk.Dir2LeafOffset) / uint64(r.g.BlockSize)
	ext, ok := r.resolver.Resolve(leafBlock)
	if !ok {
		return nil, nil
	}

	buf := make([]byte, r.g.BlockSize)
	physBlock := ext.PhysicalBlock + (leafBlock - ext.LogicalBlock)
	off := int64(physBlock) * int64(r.g.BlockSize)
	if err := r.src.ReadAt(buf, off); err != nil {
		return nil, err
	}

	header, err := ondisk.DecodeDir2LeafHeader(buf)
	if err != nil {
		// Not a recognized leaf-block magic (e.g. a "node" format
		// interior da-node block this reader does not walk); treat it
		// the same as no hash index being present.
		return nil, nil
	}
	headerSize := ondisk.SizeofDir2LeafBlockHeader
	switch header.Magic {
	case ondisk.MagicDir3Leaf1, ondisk.MagicDir3LeafN:
		headerSize = ondisk.SizeofDir3LeafBlockHeader
	}

	entries := make([]ondisk.DirLeafEntry, 0, header.Count)
	cursor := headerSize
	for i := uint16(0); i < header.Count; i++ {
		le, err := ondisk.DecodeDirLeafEntry(buf[cursor:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, le)
		cursor += 8
	}
	return entries, nil
}

// entryAt decodes the data-block entry a leaf hash-index address points
// at. address is an xfs_dir2_dataptr_t: the entry's absolute byte offset
// within the directory's data-block region, divided by 8. A stale index
// entry (left behind by a deletion, not yet compacted) resolves to a
// free region rather than a live entry; entryAt reports that as not
// found rather than an error.
func (r *blockLikeReader) entryAt(address uint32) (Entry, bool, error) {
	const dataptrAlignLog = 3
	byteOff := uint64(address) << dataptrAlignLog
	db := byteOff / uint64(r.g.BlockSize)
	off := int(byteOff % uint64(r.g.BlockSize))

	buf, _, ok, err := r.readDataBlock(db)
	if err != nil {
		return Entry{}, false, err
	}
	if !ok || off >= len(buf) {
		return Entry{}, false, nil
	}

	de, isFree, err := ondisk.DecodeDir2DataEntry(buf[off:], ftypeEnabled(r.g))
	if err != nil {
		return Entry{}, false, err
	}
	if isFree {
		return Entry{}, false, nil
	}
	return Entry{Name: string(de.Name), Inode: de.Inode, FType: de.FType}, true, nil
}

// enumerateRaw walks every entry a block/leaf/node directory physically
// stores, including "." and "..", regardless of Options.IncludeDotEntries.
func (r *blockLikeReader) enumerateRaw(ctx context.Context, fn func(Entry) error) error {
	for lb := uint64(0); lb < r.blockCount; lb++ {
		if err := pollAbort(r.abort); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		buf, headerSize, ok, err := r.readDataBlock(lb)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		err = decodeBlockEntries(buf, headerSize, ftypeEnabled(r.g), func(e ondisk.Dir2DataEntry) error {
			if string(e.Name) == ".." {
				r.parentInode = e.Inode
			}
			return fn(Entry{Name: string(e.Name), Inode: e.Inode, FType: e.FType})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *blockLikeReader) ParentInode() uint64 { return r.parentInode }

// btreeReader reads the "node" directory layout, whose data blocks are
// addressed through a block-map btree instead of a flat extent list;
// it shares blockLikeReader's entry decoding by adapting Btree to the
// Resolver interface blockLikeReader already consumes.
type btreeReader struct {
	*blockLikeReader
}

func newBtreeReader(bt *extent.Btree, src bytesource.Source, g *geometry.Geometry, ino *inode.Inode, abort *atomic.Bool, opts Options) (*btreeReader, error) {
	inner, err := newBlockLikeReader(bt, src, g, ino, abort, opts)
	if err != nil {
		return nil, err
	}
	return &btreeReader{blockLikeReader: inner}, nil
}
