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

package xfserror

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesSentinelRegardlessOfMessage(t *testing.T) {
	err := Newf(Corrupt, "bad magic %x", 0xdead)

	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, Is(err, Corrupt))
	assert.False(t, Is(err, NotFound))
}

func TestWrapUnwrapsToCause(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := Wrap(IO, cause, "reading extent block")

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrIO))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorMessageIncludesKindAndCause(t *testing.T) {
	err := Wrap(Corrupt, io.EOF, "short inode record")

	assert.Contains(t, err.Error(), "corrupt")
	assert.Contains(t, err.Error(), "short inode record")
	assert.Contains(t, err.Error(), io.EOF.Error())
}
