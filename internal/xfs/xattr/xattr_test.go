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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShortformAttrFork(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var body []byte
	for name, value := range entries {
		body = append(body, byte(len(name)), byte(len(value)), 0)
		body = append(body, []byte(name)...)
		body = append(body, []byte(value)...)
	}
	be := binary.BigEndian
	header := make([]byte, 4)
	be.PutUint16(header[0:2], uint16(4+len(body)))
	header[2] = byte(len(entries))
	return append(header, body...)
}

func TestShortformAttrReaderLookup(t *testing.T) {
	data := buildShortformAttrFork(t, map[string]string{"user.comment": "hello"})

	r, err := newShortformAttrReader(data)
	require.NoError(t, err)

	a, ok, err := r.Lookup(context.Background(), []byte("user.comment"))

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(a.Value))
}

func TestShortformAttrReaderLookupMiss(t *testing.T) {
	data := buildShortformAttrFork(t, map[string]string{"user.comment": "hello"})
	r, err := newShortformAttrReader(data)
	require.NoError(t, err)

	_, ok, err := r.Lookup(context.Background(), []byte("user.missing"))

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShortformAttrReaderEnumerateCountsEntries(t *testing.T) {
	data := buildShortformAttrFork(t, map[string]string{"a": "1", "b": "2"})
	r, err := newShortformAttrReader(data)
	require.NoError(t, err)

	attrs, err := r.Enumerate(context.Background())

	require.NoError(t, err)
	assert.Len(t, attrs, 2)
}

func TestEmptyReaderHasNoAttributes(t *testing.T) {
	r := emptyReader{}

	attrs, err := r.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, attrs)

	_, ok, err := r.Lookup(context.Background(), []byte("anything"))
	require.NoError(t, err)
	assert.False(t, ok)
}
