// Copyright 2024 Google Inc. All Rights Reserved.
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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xfsimage/xfsinspect/cfg"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
)

func TestSplitImageArgDefaultsToRoot(t *testing.T) {
	image, inner := splitImageArg("disk.img")

	assert.Equal(t, "disk.img", image)
	assert.Equal(t, "/", inner)
}

func TestSplitImageArgSplitsOnColon(t *testing.T) {
	image, inner := splitImageArg("disk.img:/etc/passwd")

	assert.Equal(t, "disk.img", image)
	assert.Equal(t, "/etc/passwd", inner)
}

func TestSplitImageArgEmptyPathAfterColonMeansRoot(t *testing.T) {
	image, inner := splitImageArg("disk.img:")

	assert.Equal(t, "disk.img", image)
	assert.Equal(t, "/", inner)
}

func TestCRCPolicyDefaultsToFatal(t *testing.T) {
	MountConfig = cfg.Config{}

	assert.Equal(t, geometry.CRCFatal, crcPolicy())
}

func TestCRCPolicyHonorsWarnConfig(t *testing.T) {
	MountConfig = cfg.Config{Xfs: cfg.XfsConfig{CRCPolicy: cfg.CRCWarn}}
	defer func() { MountConfig = cfg.Config{} }()

	assert.Equal(t, geometry.CRCWarn, crcPolicy())
}
