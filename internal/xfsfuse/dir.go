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

package xfsfuse

import (
	"sync"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/xfsimage/xfsinspect/internal/xfs/fsentry"
)

// dirHandle buffers one directory's full listing the first time it is
// read, since fsentry.Entry.Children walks the on-disk directory once
// from the start rather than supporting a resumable cursor. Subsequent
// ReadDir calls at increasing offsets just slice into the buffer.
type dirHandle struct {
	fs *fileSystem
	in *fsentry.Entry

	mu      sync.Mutex
	entries []fuseutil.Dirent
	loaded  bool
}

func newDirHandle(fs *fileSystem, in *fsentry.Entry) *dirHandle {
	return &dirHandle{fs: fs, in: in}
}

func (dh *dirHandle) load(op *fuseops.ReadDirOp) error {
	var out []fuseutil.Dirent
	offset := fuseops.DirOffset(1)

	err := dh.in.Children(op.Context(), func(name string, child *fsentry.Entry) error {
		dh.fs.mu.Lock()
		id := dh.fs.register(child)
		dh.fs.mu.Unlock()

		out = append(out, fuseutil.Dirent{
			Offset: offset,
			Inode:  id,
			Name:   name,
			Type:   directEntryType(child),
		})
		offset++
		return nil
	})
	if err != nil {
		return err
	}

	dh.entries = out
	dh.loaded = true
	return nil
}

func directEntryType(e *fsentry.Entry) fuseutil.DirentType {
	switch {
	case e.IsDir():
		return fuseutil.DT_Directory
	case e.IsSymlink():
		return fuseutil.DT_Link
	default:
		return fuseutil.DT_File
	}
}

// ReadDir serves one page of a directory listing, rebuilding the full
// buffered listing on an offset-zero request (rewinddir) or on the
// handle's first read. An offset past the end of the listing yields an
// empty page.
func (dh *dirHandle) ReadDir(op *fuseops.ReadDirOp) error {
	dh.mu.Lock()
	defer dh.mu.Unlock()

	if op.Offset == 0 || !dh.loaded {
		if err := dh.load(op); err != nil {
			return err
		}
	}

	index := int(op.Offset) - 1
	if index < 0 {
		index = 0
	}

	n := 0
	for index < len(dh.entries) {
		written := fuseutil.WriteDirent(op.Dst[n:], dh.entries[index])
		if written == 0 {
			break
		}
		n += written
		index++
	}

	op.BytesRead = n
	return nil
}
