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

// Package bytesource defines the random-access byte source every xfs
// decoding package reads through: a plain file, a raw block device, or a
// sub-window of either for images embedded at an offset inside a larger
// container.
package bytesource

import (
	"io"
	"os"

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Source is a fixed-size random-access byte range. Every read must be
// satisfied in full; a short read is reported as an *xfserror.Error of
// kind IO rather than returned as a partial-success byte count, since
// none of the decoders in this module have a sensible way to act on a
// partial structure.
type Source interface {
	// ReadAt fills p entirely from offset off, or returns an error.
	ReadAt(p []byte, off int64) error

	// Size returns the source's length in bytes.
	Size() int64

	// Close releases any underlying resources (open file descriptors).
	Close() error
}

// FileSource wraps a regular image file or a block special file.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path and determines its size, falling back to the
// BLKGETSIZE64 ioctl when os.Stat reports a zero size, which is what
// Linux does for block special files.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xfserror.Wrapf(xfserror.IO, err, "opening %s", path)
	}

	size, err := regularOrDeviceSize(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileSource{f: f, size: size}, nil
}

func regularOrDeviceSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, xfserror.Wrap(xfserror.IO, err, "stat")
	}
	if fi.Size() > 0 {
		return fi.Size(), nil
	}
	return blockDeviceSize(f)
}

func (s *FileSource) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > s.size {
		return xfserror.Newf(xfserror.IO, "read [%d,%d) out of bounds for source of size %d", off, off+int64(len(p)), s.size)
	}
	n, err := s.f.ReadAt(p, off)
	if err != nil && !(err == io.EOF && n == len(p)) {
		return xfserror.Wrapf(xfserror.IO, err, "reading %d bytes at offset %d", len(p), off)
	}
	if n != len(p) {
		return xfserror.Wrapf(xfserror.IO, io.ErrUnexpectedEOF, "short read at offset %d: got %d of %d bytes", off, n, len(p))
	}
	return nil
}

func (s *FileSource) Size() int64 { return s.size }

func (s *FileSource) Close() error { return s.f.Close() }

// WindowSource restricts another Source to the [origin, origin+length)
// byte range, so a filesystem embedded at a non-zero offset inside a
// larger container sees its own offset zero.
type WindowSource struct {
	base   Source
	origin int64
	length int64
}

// NewWindow wraps base with the given origin and length. The window must
// fit entirely within base.
func NewWindow(base Source, origin, length int64) (*WindowSource, error) {
	if origin < 0 || length < 0 || origin+length > base.Size() {
		return nil, xfserror.Newf(xfserror.InvalidArgument, "window [%d,%d) does not fit in source of size %d", origin, origin+length, base.Size())
	}
	return &WindowSource{base: base, origin: origin, length: length}, nil
}

func (w *WindowSource) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > w.length {
		return xfserror.Newf(xfserror.IO, "read [%d,%d) out of bounds for window of size %d", off, off+int64(len(p)), w.length)
	}
	return w.base.ReadAt(p, w.origin+off)
}

func (w *WindowSource) Size() int64 { return w.length }

func (w *WindowSource) Close() error { return w.base.Close() }
