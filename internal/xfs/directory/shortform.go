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

package directory

import (
	"context"

	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

// shortformReader reads a directory whose entire entry list is inline
// in the inode's data fork literal area.
type shortformReader struct {
	header  *ondisk.ShortformDirHeader
	entries []ondisk.ShortformDirEntry
	opts    Options
}

func newShortformReader(data []byte, opts Options) (*shortformReader, error) {
	header, err := ondisk.DecodeShortformDirHeader(data)
	if err != nil {
		return nil, err
	}

	i8 := header.I8Count != 0
	cursor := header.HeaderLen
	entries := make([]ondisk.ShortformDirEntry, 0, header.EntryCount)
	for i := uint8(0); i < header.EntryCount; i++ {
		entry, err := ondisk.DecodeShortformDirEntry(data[cursor:], i8, opts.shortformFType)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		cursor += entry.Length
	}

	return &shortformReader{header: header, entries: entries, opts: opts}, nil
}

func (r *shortformReader) Enumerate(ctx context.Context, fn func(Entry) error) error {
	if err := pollAbort(nil); err != nil {
		return err
	}
	if r.opts.IncludeDotEntries {
		if err := fn(Entry{Name: ".", Inode: 0}); err != nil {
			return err
		}
		if err := fn(Entry{Name: "..", Inode: r.header.ParentInode}); err != nil {
			return err
		}
	}
	for _, e := range r.entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := fn(Entry{Name: string(e.Name), Inode: e.Inode, FType: e.FType}); err != nil {
			return err
		}
	}
	return nil
}

func (r *shortformReader) Lookup(ctx context.Context, name []byte) (Entry, bool, error) {
	if string(name) == "." {
		return Entry{}, false, nil
	}
	if string(name) == ".." {
		return Entry{Name: "..", Inode: r.header.ParentInode}, true, nil
	}
	for _, e := range r.entries {
		if string(e.Name) == string(name) {
			return Entry{Name: string(e.Name), Inode: e.Inode, FType: e.FType}, true, nil
		}
	}
	return Entry{}, false, nil
}

func (r *shortformReader) ParentInode() uint64 { return r.header.ParentInode }
