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
	"fmt"

	"github.com/xfsimage/xfsinspect/cfg"
	"github.com/xfsimage/xfsinspect/internal/logger"
	"github.com/xfsimage/xfsinspect/internal/xfs/bytesource"
	"github.com/xfsimage/xfsinspect/internal/xfs/geometry"
	"github.com/xfsimage/xfsinspect/internal/xfs/volume"
)

// openVolume opens imagePath as an XFS volume, honoring the persistent
// --offset, --crc-policy, and --follow-symlinks flags.
func openVolume(imagePath string) (*volume.Volume, error) {
	f, err := bytesource.OpenFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", imagePath, err)
	}

	var src bytesource.Source = f
	if MountConfig.Xfs.Offset != 0 {
		src, err = bytesource.NewWindow(f, MountConfig.Xfs.Offset, f.Size()-MountConfig.Xfs.Offset)
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	v, err := volume.Open(src, volume.Options{
		Geometry:       geometry.Options{CRCPolicy: crcPolicy()},
		Warnf:          logger.Warnf,
		FollowSymlinks: MountConfig.Xfs.FollowSymlinks,
	})
	if err != nil {
		src.Close()
		return nil, err
	}
	return v, nil
}

func crcPolicy() geometry.CRCPolicy {
	if MountConfig.Xfs.CRCPolicy == cfg.CRCWarn {
		return geometry.CRCWarn
	}
	return geometry.CRCFatal
}
