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

package bytesource

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// blockDeviceSize issues the BLKGETSIZE64 ioctl, the only way to learn
// the size of a Linux block special file: stat(2) reports zero for them.
func blockDeviceSize(f *os.File) (int64, error) {
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, xfserror.Wrapf(xfserror.IO, err, "BLKGETSIZE64 on %s", f.Name())
	}
	return int64(size), nil
}
