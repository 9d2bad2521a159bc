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
	"log"
	"os"

	"github.com/jacobsa/fuse"
	"github.com/spf13/cobra"

	"github.com/xfsimage/xfsinspect/cfg"
	"github.com/xfsimage/xfsinspect/internal/logger"
	"github.com/xfsimage/xfsinspect/internal/xfsfuse"
)

var mountCmd = &cobra.Command{
	Use:   "mount <image> <mountpoint>",
	Short: "Mount an XFS image read-only over FUSE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, mountPoint := args[0], args[1]

		v, err := openVolume(imagePath)
		if err != nil {
			return err
		}
		defer v.Close()

		server, err := xfsfuse.NewServer(v)
		if err != nil {
			return fmt.Errorf("building fuse server: %w", err)
		}

		mountCfg := &fuse.MountConfig{
			FSName:  v.Label(),
			Subtype: "xfsinspect",
			Options: map[string]string{"ro": ""},
		}
		if MountConfig.Logging.Severity == cfg.TraceLogSeverity {
			mountCfg.DebugLogger = log.New(os.Stderr, "fuse_debug: ", log.LstdFlags)
		}

		logger.Infof("mounting %q at %q", imagePath, mountPoint)
		mfs, err := fuse.Mount(mountPoint, server, mountCfg)
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}

		return mfs.Join(cmd.Context())
	},
}
