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

// Package volume is the top-level façade over one opened XFS image: it
// owns the byte source, the derived geometry, and the inode cache, and
// hands out fsentry.Entry values through Root and OpenByInode.
package volume

import (
	"bytes"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/fsentry"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inocache"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
)

// defaultCacheBytes bounds the inode cache's accounted size; inode.Size
// estimates a decoded inode's footprint so this roughly caps memory
// rather than entry count.
const defaultCacheBytes = 64 << 20

// Options configures how a Volume interprets its image.
type Options struct {
	Geometry geometry.Options
	// CacheBytes overrides the inode cache's size bound; zero uses
	// defaultCacheBytes.
	CacheBytes uint64
	// Warnf receives non-fatal diagnostics, e.g. CRCWarn-policy
	// mismatches. A nil Warnf discards them.
	Warnf func(format string, args ...any)
	// FollowSymlinks controls whether OpenByPath resolves a symlink at
	// the final path component rather than returning it as-is.
	// Intermediate components are always followed; a path cannot
	// otherwise be walked through them.
	FollowSymlinks bool
}

// Volume is an opened, read-only XFS image.
type Volume struct {
	src   bytesource.Source
	geo   *geometry.Geometry
	cache *inocache.Loader
	abort atomic.Bool
	warnf func(format string, args ...any)

	followSymlinks bool
}

// Open parses src's superblock and prepares the volume for lookups. It
// does not read the root directory eagerly; call Root for that.
func Open(src bytesource.Source, opts Options) (*Volume, error) {
	geo, err := geometry.Open(src, opts.Geometry)
	if err != nil {
		return nil, err
	}

	cacheBytes := opts.CacheBytes
	if cacheBytes == 0 {
		cacheBytes = defaultCacheBytes
	}

	return &Volume{
		src:            src,
		geo:            geo,
		cache:          inocache.NewLoader(inocache.NewCache(cacheBytes)),
		warnf:          opts.Warnf,
		followSymlinks: opts.FollowSymlinks,
	}, nil
}

// Close releases the underlying byte source.
func (v *Volume) Close() error { return v.src.Close() }

// SignalAbort asks every in-flight operation on this volume to stop at
// its next poll point.
func (v *Volume) SignalAbort() { v.abort.Store(true) }

// Label returns the volume's label with trailing NUL bytes trimmed.
func (v *Volume) Label() string {
	return string(bytes.TrimRight(v.geo.Superblock.Label[:], "\x00"))
}

// UUID returns the volume's on-disk UUID.
func (v *Volume) UUID() uuid.UUID { return v.geo.Superblock.UUID }

// FormatVersion returns 4 or 5 depending on the superblock's version.
func (v *Volume) FormatVersion() int {
	if v.geo.Superblock.IsV5() {
		return 5
	}
	return 4
}

// Geometry exposes the derived geometry for callers that need it
// directly (the CLI's agstat subcommand).
func (v *Volume) Geometry() *geometry.Geometry { return v.geo }

// Source exposes the underlying byte source for callers that need
// direct block reads (the CLI's agstat subcommand).
func (v *Volume) Source() bytesource.Source { return v.src }

func (v *Volume) context() *fsentry.Context {
	return &fsentry.Context{
		Src:         v.src,
		Geometry:    v.geo,
		Abort:       &v.abort,
		FollowFinal: v.followSymlinks,
		LoadInode: func(ino uint64) (*inode.Inode, error) {
			result, err := v.cache.GetOrLoad(ino, func(val any) uint64 {
				return val.(*inode.Inode).Size()
			}, func() (any, error) {
				return v.decodeInode(ino)
			})
			if err != nil {
				return nil, err
			}
			return result.(*inode.Inode), nil
		},
	}
}

func (v *Volume) decodeInode(ino uint64) (*inode.Inode, error) {
	off, err := v.geo.Locate(ino)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, v.geo.InodeSize)
	if err := v.src.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return inode.Decode(ino, buf, v.geo, v.warnf)
}

// Root resolves the volume's root directory entry.
func (v *Volume) Root() (*fsentry.Entry, error) {
	return fsentry.OpenByInode(v.context(), v.geo.Superblock.RootInode)
}

// OpenByInode resolves any entry directly by its absolute inode number.
func (v *Volume) OpenByInode(number uint64) (*fsentry.Entry, error) {
	return fsentry.OpenByInode(v.context(), number)
}

// OpenByPath resolves path starting from the volume's root.
func (v *Volume) OpenByPath(path string) (*fsentry.Entry, error) {
	root, err := v.Root()
	if err != nil {
		return nil, err
	}
	if path == "" || path == "/" || path == "." {
		return root, nil
	}
	return fsentry.OpenByPath(v.context(), root, path)
}
