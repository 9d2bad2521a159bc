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

// Package cmd assembles the xfsinspect cobra command tree: a persistent
// set of volume-opening flags bound through cfg.BindFlags, and one
// subcommand per read-only operation (ls, cat, stat, xattr, mount,
// agstat).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xfsimage/xfsinspect/cfg"
	"github.com/xfsimage/xfsinspect/internal/logger"
)

var (
	bindErr     error
	MountConfig cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "xfsinspect",
	Short: "Inspect and mount read-only XFS filesystem images",
	Long: `xfsinspect decodes an XFS filesystem image directly from its
on-disk structures, without going through the kernel's xfs driver. It can
list directories, read file content and extended attributes, print
per-inode and per-allocation-group statistics, and mount an image
read-only over FUSE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if err := viper.Unmarshal(&MountConfig); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}
		return logger.InitLogFile(MountConfig.Logging)
	},
}

func init() {
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(lsCmd, catCmd, statCmd, xattrCmd, mountCmd, agstatCmd)
}

// Execute runs the command tree, exiting the process with status 1 if it
// returns an error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// splitImageArg splits an "<image>[:<path>]" command argument into the
// image file path and the in-volume path, defaulting the latter to "/".
func splitImageArg(arg string) (imagePath, innerPath string) {
	image, inner, found := strings.Cut(arg, ":")
	if !found {
		return image, "/"
	}
	if inner == "" {
		inner = "/"
	}
	return image, inner
}
