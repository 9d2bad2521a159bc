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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShortformDir(t *testing.T, parent uint64, names []string, inos []uint64) []byte {
	t.Helper()
	be := binary.BigEndian
	var body []byte
	body = append(body, byte(len(names)), 0)
	parentBuf := make([]byte, 4)
	be.PutUint32(parentBuf, uint32(parent))
	body = append(body, parentBuf...)
	for i, name := range names {
		body = append(body, byte(len(name)))
		offBuf := make([]byte, 2)
		body = append(body, offBuf...)
		body = append(body, []byte(name)...)
		inoBuf := make([]byte, 4)
		be.PutUint32(inoBuf, uint32(inos[i]))
		body = append(body, inoBuf...)
	}
	return body
}

func TestShortformReaderEnumerate(t *testing.T) {
	data := buildShortformDir(t, 128, []string{"alpha", "beta"}, []uint64{200, 300})

	r, err := newShortformReader(data, Options{})
	require.NoError(t, err)

	var got []Entry
	err = r.Enumerate(context.Background(), func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, uint64(200), got[0].Inode)
}

func TestShortformReaderLookupDotDot(t *testing.T) {
	data := buildShortformDir(t, 128, nil, nil)
	r, err := newShortformReader(data, Options{})
	require.NoError(t, err)

	e, ok, err := r.Lookup(context.Background(), []byte(".."))

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(128), e.Inode)
}

func TestShortformReaderLookupMiss(t *testing.T) {
	data := buildShortformDir(t, 128, []string{"alpha"}, []uint64{200})
	r, err := newShortformReader(data, Options{})
	require.NoError(t, err)

	_, ok, err := r.Lookup(context.Background(), []byte("missing"))

	require.NoError(t, err)
	assert.False(t, ok)
}
