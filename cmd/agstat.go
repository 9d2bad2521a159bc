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

	"github.com/spf13/cobra"

	"github.com/xfsimage/xfsinspect/internal/xfs/ondisk"
)

var agstatCmd = &cobra.Command{
	Use:   "agstat <image>",
	Short: "Print per-allocation-group free space and inode counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		g := v.Geometry()
		src := v.Source()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-4s %10s %10s %10s %10s %10s\n", "AG", "blocks", "free", "longest", "inodes", "ifree")

		blockSize := int64(g.BlockSize)
		agBytes := int64(g.AGBlocks) * blockSize

		for i := uint32(0); i < g.AGCount; i++ {
			base := int64(i) * agBytes

			agfBuf := make([]byte, ondisk.SizeofAGF)
			if err := src.ReadAt(agfBuf, base+blockSize); err != nil {
				return fmt.Errorf("ag %d: reading AGF: %w", i, err)
			}
			agf, err := ondisk.DecodeAGF(agfBuf)
			if err != nil {
				return fmt.Errorf("ag %d: %w", i, err)
			}

			agiBuf := make([]byte, ondisk.SizeofAGI)
			if err := src.ReadAt(agiBuf, base+2*blockSize); err != nil {
				return fmt.Errorf("ag %d: reading AGI: %w", i, err)
			}
			agi, err := ondisk.DecodeAGI(agiBuf)
			if err != nil {
				return fmt.Errorf("ag %d: %w", i, err)
			}

			fmt.Fprintf(out, "%-4d %10d %10d %10d %10d %10d\n",
				i, agf.Length, agf.FreeBlocks, agf.Longest, agi.Count, agi.FreeCount)
		}
		return nil
	},
}
