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

// Package xfsfuse exposes an opened XFS volume as a read-only FUSE file
// system, for the xfsinspect mount subcommand. It maps XFS inode numbers
// directly onto fuseops.InodeID values (minting a synthetic ID only for
// the root, whose XFS inode number rarely matches fuseops.RootInodeID)
// and serves every mutating fuseutil.FileSystem method with fuse.EROFS.
package xfsfuse

import (
	"sync"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/syncutil"

	"github.com/xfsimage/xfsinspect/internal/logger"
	"github.com/xfsimage/xfsinspect/internal/xfs/fsentry"
	"github.com/xfsimage/xfsinspect/internal/xfs/volume"
)

// fileSystem adapts a volume.Volume to fuseutil.FileSystem. It keeps a
// table mapping minted fuseops.InodeID values to resolved fsentry.Entry
// values, since LookUpInode and ReadDir both need to hand the kernel a
// stable ID for every entry they report.
type fileSystem struct {
	vol *volume.Volume

	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	entries map[fuseops.InodeID]*fsentry.Entry

	// GUARDED_BY(mu)
	rootIno uint64

	handlesMu sync.Mutex
	handles   map[fuseops.HandleID]*dirHandle
	nextHID   fuseops.HandleID
}

// NewServer opens a fuse.Server that serves vol read-only.
func NewServer(vol *volume.Volume) (fuse.Server, error) {
	root, err := vol.Root()
	if err != nil {
		return nil, err
	}

	fs := &fileSystem{
		vol:     vol,
		entries: map[fuseops.InodeID]*fsentry.Entry{fuseops.RootInodeID: root},
		rootIno: root.Number(),
		handles: make(map[fuseops.HandleID]*dirHandle),
	}
	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariants)

	return fuseutil.NewFileSystemServer(fs), nil
}

func (fs *fileSystem) checkInvariants() {
	if _, ok := fs.entries[fuseops.RootInodeID]; !ok {
		panic("xfsfuse: root inode missing from entry table")
	}
}

// idFor returns the fuseops.InodeID under which number is already known,
// minting fuseops.RootInodeID the first time the root's own XFS number is
// looked up and number itself otherwise. XFS inode numbers are already
// dense 64-bit identifiers distinct from the root's, so no other
// translation is needed.
func (fs *fileSystem) idFor(number uint64) fuseops.InodeID {
	if number == fs.rootIno {
		return fuseops.RootInodeID
	}
	return fuseops.InodeID(number)
}

func (fs *fileSystem) register(e *fsentry.Entry) fuseops.InodeID {
	id := fs.idFor(e.Number())
	fs.entries[id] = e
	return id
}

func attributesFor(e *fsentry.Entry) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:   e.Size(),
		Nlink:  e.LinkCount(),
		Mode:   e.Mode(),
		Uid:    e.OwnerID(),
		Gid:    e.GroupID(),
		Atime:  e.AccessTime(),
		Mtime:  e.ModTime(),
		Ctime:  e.ChangeTime(),
		Crtime: e.CreationTime(),
	}
}

func (fs *fileSystem) Init(op *fuseops.InitOp) error {
	return nil
}

func (fs *fileSystem) LookUpInode(op *fuseops.LookUpInodeOp) error {
	fs.mu.Lock()
	parent, ok := fs.entries[op.Parent]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}

	var child *fsentry.Entry
	var found bool
	err := parent.Children(op.Context(), func(name string, e *fsentry.Entry) error {
		if name == op.Name {
			child, found = e, true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fuse.ENOENT
	}

	fs.mu.Lock()
	op.Entry.Child = fs.register(child)
	fs.mu.Unlock()
	op.Entry.Attributes = attributesFor(child)
	return nil
}

func (fs *fileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) error {
	fs.mu.Lock()
	e, ok := fs.entries[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}

	op.Attributes = attributesFor(e)
	return nil
}

func (fs *fileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) error {
	return fuse.EROFS
}

func (fs *fileSystem) ForgetInode(op *fuseops.ForgetInodeOp) error {
	if op.Inode == fuseops.RootInodeID {
		return nil
	}
	fs.mu.Lock()
	delete(fs.entries, op.Inode)
	fs.mu.Unlock()
	return nil
}

func (fs *fileSystem) MkDir(op *fuseops.MkDirOp) error       { return fuse.EROFS }
func (fs *fileSystem) MkNode(op *fuseops.MkNodeOp) error     { return fuse.EROFS }
func (fs *fileSystem) CreateFile(op *fuseops.CreateFileOp) error {
	return fuse.EROFS
}
func (fs *fileSystem) CreateLink(op *fuseops.CreateLinkOp) error {
	return fuse.EROFS
}
func (fs *fileSystem) CreateSymlink(op *fuseops.CreateSymlinkOp) error {
	return fuse.EROFS
}
func (fs *fileSystem) Rename(op *fuseops.RenameOp) error { return fuse.EROFS }
func (fs *fileSystem) RmDir(op *fuseops.RmDirOp) error   { return fuse.EROFS }
func (fs *fileSystem) Unlink(op *fuseops.UnlinkOp) error { return fuse.EROFS }

func (fs *fileSystem) OpenDir(op *fuseops.OpenDirOp) error {
	fs.mu.Lock()
	e, ok := fs.entries[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	if !e.IsDir() {
		return fuse.EIO
	}

	fs.handlesMu.Lock()
	fs.nextHID++
	id := fs.nextHID
	fs.handles[id] = newDirHandle(fs, e)
	fs.handlesMu.Unlock()

	op.Handle = id
	return nil
}

func (fs *fileSystem) ReadDir(op *fuseops.ReadDirOp) error {
	fs.handlesMu.Lock()
	dh, ok := fs.handles[op.Handle]
	fs.handlesMu.Unlock()
	if !ok {
		return fuse.EIO
	}
	return dh.ReadDir(op)
}

func (fs *fileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) error {
	fs.handlesMu.Lock()
	delete(fs.handles, op.Handle)
	fs.handlesMu.Unlock()
	return nil
}

func (fs *fileSystem) OpenFile(op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	e, ok := fs.entries[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	if e.IsDir() {
		return fuse.EIO
	}
	return nil
}

func (fs *fileSystem) ReadFile(op *fuseops.ReadFileOp) error {
	fs.mu.Lock()
	e, ok := fs.entries[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}

	n, err := e.Read(op.Context(), op.Dst, op.Offset)
	op.BytesRead = n
	if err != nil {
		logger.Warnf("xfsfuse: ReadFile inode %d: %v", op.Inode, err)
		return fuse.EIO
	}
	return nil
}

func (fs *fileSystem) ReadSymlink(op *fuseops.ReadSymlinkOp) error {
	fs.mu.Lock()
	e, ok := fs.entries[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}

	target, err := e.ReadSymlink()
	if err != nil {
		return fuse.EIO
	}
	op.Target = target
	return nil
}

func (fs *fileSystem) WriteFile(op *fuseops.WriteFileOp) error { return fuse.EROFS }
func (fs *fileSystem) SyncFile(op *fuseops.SyncFileOp) error   { return nil }
func (fs *fileSystem) FlushFile(op *fuseops.FlushFileOp) error { return nil }
