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

package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeEmptyNameIsZero(t *testing.T) {
	assert.Equal(t, uint32(0), Compute(nil))
	assert.Equal(t, uint32(0), Compute([]byte{}))
}

func TestComputeIsDeterministic(t *testing.T) {
	names := [][]byte{
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("abcd"),
		[]byte("abcde"),
		[]byte("file_137"),
		[]byte("a-rather-longer-directory-entry-name.txt"),
	}
	for _, name := range names {
		first := Compute(name)
		second := Compute(append([]byte(nil), name...))
		assert.Equal(t, first, second, "hash of %q should be stable across calls", name)
	}
}

func TestComputeDiffersForDifferentNames(t *testing.T) {
	assert.NotEqual(t, Compute([]byte("file_1")), Compute([]byte("file_2")))
	assert.NotEqual(t, Compute([]byte("a")), Compute([]byte("b")))
}

func TestComputeSingleByteMatchesReferenceFormula(t *testing.T) {
	// For a one-byte name the rolling hash is seeded at zero, so the
	// result reduces to the byte's value xored with rotl32(0, 7), which
	// is just the byte's value.
	assert.Equal(t, uint32('a'), Compute([]byte("a")))
}
