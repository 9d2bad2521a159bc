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
	"context"

	"github.com/spf13/cobra"

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

var catCmd = &cobra.Command{
	Use:   "cat <image>:<path>",
	Short: "Print a file's content to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, innerPath := splitImageArg(args[0])

		v, err := openVolume(imagePath)
		if err != nil {
			return err
		}
		defer v.Close()

		e, err := v.OpenByPath(innerPath)
		if err != nil {
			return err
		}
		if e.IsDir() {
			return xfserror.Newf(xfserror.InvalidArgument, "cat: %q is a directory", innerPath)
		}

		const chunk = 256 * 1024
		buf := make([]byte, chunk)
		out := cmd.OutOrStdout()
		var off int64
		for {
			n, err := e.Read(context.Background(), buf, off)
			if n > 0 {
				if _, werr := out.Write(buf[:n]); werr != nil {
					return werr
				}
				off += int64(n)
			}
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			if off >= int64(e.Size()) {
				return nil
			}
		}
	},
}
