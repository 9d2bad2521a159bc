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
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xfsimage/xfsinspect/internal/xfs/fsentry"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls <image>[:<path>]",
	Short: "List a directory's entries",
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
		if !e.IsDir() {
			return printEntry(cmd, innerPath, e)
		}

		type row struct {
			name  string
			entry *fsentry.Entry
		}
		var rows []row
		err = e.Children(context.Background(), func(name string, child *fsentry.Entry) error {
			rows = append(rows, row{name, child})
			return nil
		})
		if err != nil {
			return err
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

		for _, r := range rows {
			if lsLong {
				if err := printEntry(cmd, r.name, r.entry); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), r.name)
			}
		}
		return nil
	},
}

func printEntry(cmd *cobra.Command, name string, e *fsentry.Entry) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %8d %6d %6d %10d %s\n",
		e.Mode(), e.Number(), e.OwnerID(), e.GroupID(), e.Size(), name)
	return nil
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show mode, inode number, owner, group, and size")
}
