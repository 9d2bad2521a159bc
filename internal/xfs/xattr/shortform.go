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

package xattr

import (
	"context"

	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

type shortformAttrReader struct {
	attrs []Attribute
}

func newShortformAttrReader(data []byte) (*shortformAttrReader, error) {
	header, err := ondisk.DecodeShortformAttrHeader(data)
	if err != nil {
		return nil, err
	}

	cursor := 4
	attrs := make([]Attribute, 0, header.EntryCount)
	for i := uint8(0); i < header.EntryCount; i++ {
		entry, err := ondisk.DecodeShortformAttrEntry(data[cursor:])
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{
			Name:       entry.Name,
			Value:      entry.Value,
			Root:       entry.Flags&ondisk.AttrFlagRoot != 0,
			Secure:     entry.Flags&ondisk.AttrFlagSecure != 0,
			Incomplete: entry.Flags&ondisk.AttrFlagIncomplete != 0,
		})
		cursor += entry.Length
	}

	return &shortformAttrReader{attrs: attrs}, nil
}

func (r *shortformAttrReader) Enumerate(context.Context) ([]Attribute, error) {
	return r.attrs, nil
}

func (r *shortformAttrReader) Lookup(_ context.Context, name []byte) (Attribute, bool, error) {
	for _, a := range r.attrs {
		if string(a.Name) == string(name) {
			return a, true, nil
		}
	}
	return Attribute{}, false, nil
}
