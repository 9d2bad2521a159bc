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

package xattr

import (
	"context"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// leafAttrReader reads an attribute fork stored as one or more leaf
// blocks (FormatExtents) or addressed through a block-map btree
// (FormatBtree), resolving remote (out-of-line) values through the same
// attribute-fork extent map.
type leafAttrReader struct {
	resolver extent.Resolver
	src      bytesource.Source
	g        *geometry.Geometry
}

func newLeafAttrReader(resolver extent.Resolver, src bytesource.Source, g *geometry.Geometry) (*leafAttrReader, error) {
	return &leafAttrReader{resolver: resolver, src: src, g: g}, nil
}

// readRemoteValue reads a remote attribute value whose first block is
// logical block valueBlock of the attribute fork: that block is resolved
// through the fork's extent map, and valueLen bytes are read contiguously
// from the physical block it maps to.
func (r *leafAttrReader) readRemoteValue(valueBlock, valueLen uint32) ([]byte, error) {
	ext, ok := r.resolver.Resolve(uint64(valueBlock))
	if !ok {
		return nil, xfserror.Newf(xfserror.Corrupt, "attr remote value: logical block %d is not mapped", valueBlock)
	}
	physBlock := ext.PhysicalBlock + (uint64(valueBlock) - ext.LogicalBlock)
	buf := make([]byte, valueLen)
	off := int64(physBlock) * int64(r.g.BlockSize)
	if err := r.src.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// forEachLeafBlock walks every logical block the attribute fork maps,
// decoding it as an attribute leaf block and invoking fn for each
// block found (blocks that fail to parse as a leaf, such as a
// btree-node intermediate, are skipped).
func (r *leafAttrReader) forEachLeafBlock(maxBlocks uint64, fn func(block []byte, headerSize int) error) error {
	for lb := uint64(0); lb < maxBlocks; lb++ {
		ext, ok := r.resolver.Resolve(lb)
		if !ok {
			continue
		}
		physBlock := ext.PhysicalBlock + (lb - ext.LogicalBlock)
		buf := make([]byte, r.g.BlockSize)
		if err := r.src.ReadAt(buf, int64(physBlock)*int64(r.g.BlockSize)); err != nil {
			return err
		}
		header, err := ondisk.DecodeAttrLeafHeader(buf)
		if err != nil {
			continue
		}
		headerSize := 32
		if header.Magic == ondisk.MagicAttr3Leaf {
			headerSize = 64
		}
		if err := fn(buf, headerSize); err != nil {
			return err
		}
	}
	return nil
}

func (r *leafAttrReader) decodeBlock(block []byte, headerSize int) ([]Attribute, error) {
	header, err := ondisk.DecodeAttrLeafHeader(block)
	if err != nil {
		return nil, err
	}

	var attrs []Attribute
	for i := uint16(0); i < header.Count; i++ {
		entryOff := headerSize + int(i)*8
		le, err := ondisk.DecodeAttrLeafEntry(block[entryOff : entryOff+8])
		if err != nil {
			return nil, err
		}
		if le.Flags&ondisk.AttrFlagIncomplete != 0 {
			continue
		}
		nameArea := block[le.NameIdx:]
		if le.Flags&ondisk.AttrFlagLocal != 0 {
			local, err := ondisk.DecodeAttrLeafNameLocal(nameArea)
			if err != nil {
				continue
			}
			attrs = append(attrs, Attribute{
				Name:       local.Name,
				Value:      local.Value,
				Root:       le.Flags&ondisk.AttrFlagRoot != 0,
				Secure:     le.Flags&ondisk.AttrFlagSecure != 0,
			})
			continue
		}

		remote, err := ondisk.DecodeAttrLeafNameRemote(nameArea)
		if err != nil {
			continue
		}
		value, err := r.readRemoteValue(remote.ValueBlock, remote.ValueLen)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{
			Name:   remote.Name,
			Value:  value,
			Root:   le.Flags&ondisk.AttrFlagRoot != 0,
			Secure: le.Flags&ondisk.AttrFlagSecure != 0,
		})
	}
	return attrs, nil
}

// maxAttrBlocks bounds how many logical blocks this reader will probe
// looking for leaf blocks; the attribute fork rarely exceeds a handful
// of blocks, so this generous bound still keeps a corrupt fork from
// spinning forever.
const maxAttrBlocks = 4096

func (r *leafAttrReader) Enumerate(context.Context) ([]Attribute, error) {
	var all []Attribute
	err := r.forEachLeafBlock(maxAttrBlocks, func(block []byte, headerSize int) error {
		attrs, err := r.decodeBlock(block, headerSize)
		if err != nil {
			return err
		}
		all = append(all, attrs...)
		return nil
	})
	return all, err
}

func (r *leafAttrReader) Lookup(ctx context.Context, name []byte) (Attribute, bool, error) {
	attrs, err := r.Enumerate(ctx)
	if err != nil {
		return Attribute{}, false, err
	}
	for _, a := range attrs {
		if string(a.Name) == string(name) {
			return a, true, nil
		}
	}
	return Attribute{}, false, nil
}
