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

// Package fsentry is the read-only file-entry façade: it opens inodes
// by number or by path, follows symlinks, streams file content, and
// lists directory children, tying together inode/extent/directory/
// xattr into the single surface a CLI or FUSE layer wants.
package fsentry

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/directory"
	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xattr"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// maxSymlinkHops bounds path resolution against a symlink loop, per
// spec.md §4.8.
const maxSymlinkHops = 40

// Context bundles the resources an Entry needs to resolve further
// inodes, extents, and attributes, so Entry itself stays a thin value
// type. It is supplied by the volume package, which owns the
// underlying byte source and geometry.
type Context struct {
	Src      bytesource.Source
	Geometry *geometry.Geometry
	Abort    *atomic.Bool

	// FollowFinal controls whether OpenByPath resolves a symlink found
	// at the last path component instead of returning it directly.
	// Intermediate components are always followed.
	FollowFinal bool

	// LoadInode decodes the inode at absolute inode number ino, backed
	// by the volume's inocache so repeated lookups of the same number
	// share one decode.
	LoadInode func(ino uint64) (*inode.Inode, error)
}

// Entry is a resolved filesystem object: its inode plus enough context
// to read its content or list its children.
type Entry struct {
	ctx *Context
	ino *inode.Inode
}

// OpenByInode resolves an Entry directly from an absolute inode number.
func OpenByInode(ctx *Context, number uint64) (*Entry, error) {
	in, err := ctx.LoadInode(number)
	if err != nil {
		return nil, err
	}
	return &Entry{ctx: ctx, ino: in}, nil
}

// OpenByPath resolves path component by component from root, following
// symlinks along the way up to maxSymlinkHops times in total.
func OpenByPath(ctx *Context, root *Entry, path string) (*Entry, error) {
	hops := 0
	return openByPath(ctx, root, root, path, &hops)
}

// openByPath resolves path from start. root anchors absolute symlink
// targets, and hops counts the symlinks followed across nested calls.
func openByPath(ctx *Context, root, start *Entry, path string, hops *int) (*Entry, error) {
	current := start

	components := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(components); i++ {
		comp := components[i]
		if comp == "" || comp == "." {
			continue
		}

		if !current.IsDir() {
			return nil, xfserror.Newf(xfserror.NotFound, "path: %q is not a directory", comp)
		}
		dirReader, err := current.openDirectory()
		if err != nil {
			return nil, err
		}
		e, ok, err := dirReader.Lookup(context.Background(), []byte(comp))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, xfserror.Newf(xfserror.NotFound, "path component %q not found", comp)
		}

		next, err := OpenByInode(ctx, e.Inode)
		if err != nil {
			return nil, err
		}

		isFinal := i == len(components)-1
		for next.IsSymlink() && (!isFinal || ctx.FollowFinal) {
			*hops++
			if *hops > maxSymlinkHops {
				return nil, xfserror.New(xfserror.InvalidArgument, "path: too many levels of symbolic links")
			}
			target, err := next.ReadSymlink()
			if err != nil {
				return nil, err
			}
			base := current
			if strings.HasPrefix(target, "/") {
				base = root
			}
			next, err = openByPath(ctx, root, base, target, hops)
			if err != nil {
				return nil, err
			}
		}

		current = next
	}

	return current, nil
}

// Inode exposes the underlying decoded inode for callers that need raw
// field access (the CLI's stat subcommand).
func (e *Entry) Inode() *inode.Inode { return e.ino }

// Number returns the entry's absolute inode number.
func (e *Entry) Number() uint64 { return e.ino.Number }

// Mode returns the entry's type and permission bits.
func (e *Entry) Mode() os.FileMode { return e.ino.Mode() }

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.ino.IsDir() }

// IsSymlink reports whether the entry is a symbolic link.
func (e *Entry) IsSymlink() bool { return e.ino.IsSymlink() }

// Size returns the entry's logical size in bytes.
func (e *Entry) Size() uint64 { return e.ino.Core.Size }

// LinkCount returns the entry's hard-link count.
func (e *Entry) LinkCount() uint32 { return e.ino.Core.LinkCount }

// OwnerID, GroupID, and ProjectID return the entry's numeric owner,
// group, and project identifiers.
func (e *Entry) OwnerID() uint32   { return e.ino.Core.OwnerID }
func (e *Entry) GroupID() uint32   { return e.ino.Core.GroupID }
func (e *Entry) ProjectID() uint32 { return e.ino.Core.ProjectID }

// ModTime, AccessTime, ChangeTime, and CreationTime return the entry's
// timestamps. CreationTime is the zero time on a v1/v2 inode; check
// HasCreationTime first.
func (e *Entry) ModTime() time.Time      { return e.ino.ModTime() }
func (e *Entry) AccessTime() time.Time   { return e.ino.AccessTime() }
func (e *Entry) ChangeTime() time.Time   { return e.ino.ChangeTime() }
func (e *Entry) CreationTime() time.Time { return e.ino.CreationTime() }
func (e *Entry) HasCreationTime() bool   { return e.ino.HasCreationTime() }

func (e *Entry) openDirectory() (directory.Reader, error) {
	return directory.Open(e.ino, e.ctx.Src, e.ctx.Geometry, e.ctx.Abort, directory.Options{})
}

// Children lists the entry's directory children. fn is called once per
// entry; returning an error from fn stops the walk and is returned to
// the caller.
func (e *Entry) Children(ctx context.Context, fn func(name string, child *Entry) error) error {
	if !e.IsDir() {
		return xfserror.New(xfserror.InvalidArgument, "fsentry: Children called on a non-directory")
	}
	reader, err := e.openDirectory()
	if err != nil {
		return err
	}
	return reader.Enumerate(ctx, func(de directory.Entry) error {
		child, err := OpenByInode(e.ctx, de.Inode)
		if err != nil {
			return err
		}
		return fn(de.Name, child)
	})
}

func (e *Entry) resolver() (extent.Resolver, error) {
	switch e.ino.Core.DataForkFmt {
	case ondisk.FormatExtents:
		return extent.DecodeList(e.ino.DataFork)
	case ondisk.FormatBtree:
		return extent.NewBtree(e.ctx.Src, e.ctx.Geometry, e.ino.DataFork)
	default:
		return nil, xfserror.Newf(xfserror.Unsupported, "fsentry: unsupported data fork format %d for streamed read", e.ino.Core.DataForkFmt)
	}
}

// Read streams the entry's file content, behaving like extent.Reader.
func (e *Entry) Read(ctx context.Context, buf []byte, off int64) (int, error) {
	if e.ino.Core.DataForkFmt == ondisk.FormatLocal {
		data := e.ino.DataFork
		if uint64(len(data)) > e.ino.Core.Size {
			data = data[:e.ino.Core.Size]
		}
		if off >= int64(len(data)) {
			return 0, nil
		}
		n := copy(buf, data[off:])
		return n, nil
	}

	resolver, err := e.resolver()
	if err != nil {
		return 0, err
	}
	reader := extent.NewReader(resolver, e.ctx.Src, e.ctx.Geometry, int64(e.ino.Core.Size), e.ctx.Abort)
	return reader.Read(ctx, buf, off)
}

// ReadSymlink returns a symlink's target path, dispatching on its
// data-fork format: inline bytes for FormatLocal, or a full read
// through the extent machinery for FormatExtents/FormatBtree.
func (e *Entry) ReadSymlink() (string, error) {
	if !e.IsSymlink() {
		return "", xfserror.New(xfserror.InvalidArgument, "fsentry: ReadSymlink called on a non-symlink")
	}
	if e.ino.Core.DataForkFmt == ondisk.FormatLocal {
		return string(e.ino.DataFork[:e.ino.Core.Size]), nil
	}

	buf := make([]byte, e.ino.Core.Size)
	n, err := e.Read(context.Background(), buf, 0)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// Attributes opens the entry's extended-attribute reader.
func (e *Entry) Attributes() (xattr.Reader, error) {
	return xattr.Open(e.ino, e.ctx.Src, e.ctx.Geometry)
}
