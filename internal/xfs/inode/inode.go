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

// Package inode turns a raw on-disk inode record into a usable Inode:
// the decoded core fields, the data and attribute fork bytes split out
// by fork offset, and CRC verification for v5 images per the
// configured policy.
package inode

import (
	"os"
	"time"

	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Inode is the decoded, self-contained view of one on-disk inode: its
// core metadata plus the raw bytes of its data and attribute forks,
// still in their on-disk fork format (extents, short-form, or btree
// root) for the extent/directory/xattr packages to interpret.
type Inode struct {
	Number uint64

	Core *ondisk.InodeCore

	// DataFork and AttrFork are the fork regions sliced out of the
	// inode's literal-area bytes (the space after the 96/176-byte core,
	// up to InodeSize), split at ForkOffset*8 when an attribute fork is
	// present.
	DataFork []byte
	AttrFork []byte
}

// Decode builds an Inode from the raw inode-sized byte slice at
// absolute inode number ino. g supplies the CRC feature flag and policy;
// a v5 inode whose checksum fails is Corrupt under CRCFatal or merely
// reported via warnf under CRCWarn.
func Decode(ino uint64, data []byte, g *geometry.Geometry, warnf func(format string, args ...any)) (*Inode, error) {
	core, err := ondisk.DecodeInodeCore(data)
	if err != nil {
		return nil, err
	}

	if g.CRCEnabled && core.FormatVersion == 3 {
		if !ondisk.VerifyInodeCRC(data) {
			msg := xfserror.Newf(xfserror.Corrupt, "inode %d: crc32c mismatch", ino)
			if g.Options.CRCPolicy == geometry.CRCFatal {
				return nil, msg
			}
			if warnf != nil {
				warnf("inode %d: crc32c mismatch, proceeding (warn policy)", ino)
			}
		}
	}

	literalOffset := ondisk.SizeofInodeCoreV1V2
	if core.FormatVersion == 3 {
		literalOffset = ondisk.SizeofInodeCoreV3
	}
	if literalOffset > len(data) {
		return nil, xfserror.Newf(xfserror.Corrupt, "inode %d: literal area offset %d exceeds inode size %d", ino, literalOffset, len(data))
	}
	literal := data[literalOffset:]

	in := &Inode{Number: ino, Core: core}

	if core.ForkOffset == 0 {
		in.DataFork = literal
		in.AttrFork = nil
	} else {
		split := int(core.ForkOffset) * 8
		if split > len(literal) {
			return nil, xfserror.Newf(xfserror.Corrupt, "inode %d: fork offset %d exceeds literal area %d", ino, split, len(literal))
		}
		in.DataFork = literal[:split]
		in.AttrFork = literal[split:]
	}

	return in, nil
}

// Mode returns the Go os.FileMode equivalent of the on-disk type and
// permission bits.
func (i *Inode) Mode() os.FileMode {
	m := os.FileMode(i.Core.FileMode & 0777)
	switch i.Core.FileMode & 0170000 {
	case 0040000:
		m |= os.ModeDir
	case 0120000:
		m |= os.ModeSymlink
	case 0020000:
		m |= os.ModeCharDevice | os.ModeDevice
	case 0060000:
		m |= os.ModeDevice
	case 0010000:
		m |= os.ModeNamedPipe
	case 0140000:
		m |= os.ModeSocket
	}
	return m
}

// IsDir reports whether the inode is a directory.
func (i *Inode) IsDir() bool { return i.Core.FileMode&0170000 == 0040000 }

// IsSymlink reports whether the inode is a symbolic link.
func (i *Inode) IsSymlink() bool { return i.Core.FileMode&0170000 == 0120000 }

// HasCreationTime reports whether this is a v3 inode and therefore
// carries a valid di_crtime field.
func (i *Inode) HasCreationTime() bool { return i.Core.HasCreationTime }

// ModTime returns the inode's modification time as a time.Time.
func (i *Inode) ModTime() time.Time {
	return time.Unix(0, i.Core.ModificationTime.Nanos()).UTC()
}

// AccessTime returns the inode's last-access time as a time.Time.
func (i *Inode) AccessTime() time.Time {
	return time.Unix(0, i.Core.AccessTime.Nanos()).UTC()
}

// ChangeTime returns the inode's last metadata-change time as a
// time.Time.
func (i *Inode) ChangeTime() time.Time {
	return time.Unix(0, i.Core.InodeChangeTime.Nanos()).UTC()
}

// CreationTime returns the inode's creation time. Callers must check
// HasCreationTime first; on a v1/v2 inode this returns the zero time.
func (i *Inode) CreationTime() time.Time {
	if !i.Core.HasCreationTime {
		return time.Time{}
	}
	return time.Unix(0, i.Core.CreationTime.Nanos()).UTC()
}

// Size estimates the decoded Inode's memory footprint in bytes, used to
// charge inocache.Cache for a cached entry.
func (i *Inode) Size() uint64 {
	return uint64(len(i.DataFork) + len(i.AttrFork) + 256)
}
