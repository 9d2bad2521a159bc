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

package extent

import (
	"context"
	"sync/atomic"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Reader streams a file's logical byte content through its Resolver,
// zero-filling holes and clamping reads to the inode's reported size.
type Reader struct {
	resolver Resolver
	src      bytesource.Source
	g        *geometry.Geometry
	size     int64
	abort    *atomic.Bool
}

// NewReader builds a Reader over resolver for a file of the given
// logical size. abort, if non-nil, is polled before every block is
// read so a long read can be cut short by Volume.SignalAbort.
func NewReader(resolver Resolver, src bytesource.Source, g *geometry.Geometry, size int64, abort *atomic.Bool) *Reader {
	return &Reader{resolver: resolver, src: src, g: g, size: size, abort: abort}
}

// Read fills buf with the file's logical content starting at off,
// returning the number of bytes filled. Reads past size are clamped to
// size; unmapped logical ranges (holes) are zero-filled.
func (r *Reader) Read(ctx context.Context, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, xfserror.New(xfserror.InvalidArgument, "extent reader: negative offset")
	}
	if off >= r.size {
		return 0, nil
	}
	want := len(buf)
	if off+int64(want) > r.size {
		want = int(r.size - off)
	}

	blockSize := int64(r.g.BlockSize)
	n := 0
	for n < want {
		if r.abort != nil && r.abort.Load() {
			return n, xfserror.ErrAborted
		}
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		cur := off + int64(n)
		logicalBlock := uint64(cur / blockSize)
		blockStart := int64(logicalBlock) * blockSize
		inBlock := cur - blockStart
		chunk := int64(want-n)
		if chunk > blockSize-inBlock {
			chunk = blockSize - inBlock
		}

		ext, ok := r.resolver.Resolve(logicalBlock)
		if !ok || ext.Unwritten {
			for i := int64(0); i < chunk; i++ {
				buf[n] = 0
				n++
			}
			continue
		}

		physBlock := ext.PhysicalBlock + (logicalBlock - ext.LogicalBlock)
		physOff := int64(physBlock)*blockSize + inBlock
		if err := r.src.ReadAt(buf[n:n+int(chunk)], physOff); err != nil {
			return n, err
		}
		n += int(chunk)
	}
	return n, nil
}
