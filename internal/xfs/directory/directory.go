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

// Package directory dispatches on an inode's data-fork format to read
// its short-form, block, leaf, or node directory layout, and exposes a
// single Enumerate/Lookup surface regardless of which layout backs it.
package directory

import (
	"context"
	"sync/atomic"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Entry is one directory entry, format-independent.
type Entry struct {
	Name  string
	Inode uint64
	FType uint8
}

// Options configures directory reading.
type Options struct {
	// IncludeDotEntries keeps "." and ".." in Enumerate output: the
	// block/leaf/node readers pass through the two entries stored on
	// disk, and the short-form reader, whose layout does not store them,
	// synthesizes them ("." with inode 0, ".." with ParentInode). Off by
	// default.
	IncludeDotEntries bool

	// shortformFType mirrors the volume's ftype feature bit; Open fills
	// this in from geometry so the shortform/block decoders know
	// whether an ftype byte follows each entry's name.
	shortformFType bool
}

// Reader enumerates and looks up entries in one directory, regardless
// of its on-disk layout.
type Reader interface {
	Enumerate(ctx context.Context, fn func(Entry) error) error
	Lookup(ctx context.Context, name []byte) (Entry, bool, error)
	ParentInode() uint64
}

// Open dispatches on ino's data-fork format to build the right Reader.
func Open(ino *inode.Inode, src bytesource.Source, g *geometry.Geometry, abort *atomic.Bool, opts Options) (Reader, error) {
	opts.shortformFType = g.FTypeEnabled
	switch ino.Core.DataForkFmt {
	case ondisk.FormatLocal:
		return newShortformReader(ino.DataFork, opts)
	case ondisk.FormatExtents:
		list, err := extent.DecodeList(ino.DataFork)
		if err != nil {
			return nil, err
		}
		return newBlockLikeReader(list, src, g, ino, abort, opts)
	case ondisk.FormatBtree:
		bt, err := extent.NewBtree(src, g, ino.DataFork)
		if err != nil {
			return nil, err
		}
		return newBtreeReader(bt, src, g, ino, abort, opts)
	default:
		return nil, xfserror.Newf(xfserror.Unsupported, "directory: unsupported data fork format %d", ino.Core.DataForkFmt)
	}
}

func pollAbort(abort *atomic.Bool) error {
	if abort != nil && abort.Load() {
		return xfserror.ErrAborted
	}
	return nil
}

func ftypeEnabled(g *geometry.Geometry) bool { return g.FTypeEnabled }

func decodeBlockEntries(data []byte, headerSize int, ftype bool, fn func(ondisk.Dir2DataEntry) error) error {
	cursor := headerSize
	for cursor < len(data) {
		entry, isFree, err := ondisk.DecodeDir2DataEntry(data[cursor:], ftype)
		if err != nil {
			return err
		}
		if entry.Length == 0 {
			break
		}
		if !isFree {
			if err := fn(entry); err != nil {
				return err
			}
		}
		cursor += entry.Length
	}
	return nil
}
