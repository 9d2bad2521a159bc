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

// Package xattr reads an inode's extended-attribute fork, dispatching
// on its format the same way the directory package dispatches on a
// data fork: short-form (inline) vs leaf/node (indexed, with values
// potentially stored out-of-line in separate filesystem blocks).
package xattr

import (
	"context"

	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/extent"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/inode"
	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// Attribute is one decoded name/value pair.
type Attribute struct {
	Name      []byte
	Value     []byte
	Root      bool
	Secure    bool
	Incomplete bool
}

// Reader enumerates and looks up an inode's extended attributes.
type Reader interface {
	Enumerate(ctx context.Context) ([]Attribute, error)
	Lookup(ctx context.Context, name []byte) (Attribute, bool, error)
}

// Open dispatches on ino's attribute-fork format. An inode with no
// attribute fork (AttrFork == nil) has no extended attributes.
func Open(ino *inode.Inode, src bytesource.Source, g *geometry.Geometry) (Reader, error) {
	if ino.AttrFork == nil {
		return emptyReader{}, nil
	}
	switch ino.Core.AttrForkFmt {
	case ondisk.FormatLocal:
		return newShortformAttrReader(ino.AttrFork)
	case ondisk.FormatExtents:
		list, err := extent.DecodeList(ino.AttrFork)
		if err != nil {
			return nil, err
		}
		return newLeafAttrReader(list, src, g)
	case ondisk.FormatBtree:
		bt, err := extent.NewBtree(src, g, ino.AttrFork)
		if err != nil {
			return nil, err
		}
		return newLeafAttrReader(bt, src, g)
	default:
		return nil, xfserror.Newf(xfserror.Unsupported, "xattr: unsupported attr fork format %d", ino.Core.AttrForkFmt)
	}
}

type emptyReader struct{}

func (emptyReader) Enumerate(context.Context) ([]Attribute, error)              { return nil, nil }
func (emptyReader) Lookup(context.Context, []byte) (Attribute, bool, error) { return Attribute{}, false, nil }
