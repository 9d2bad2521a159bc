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
)

var xattrCmd = &cobra.Command{
	Use:   "xattr <image>:<path>",
	Short: "List an entry's extended attributes",
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

		reader, err := e.Attributes()
		if err != nil {
			return err
		}
		attrs, err := reader.Enumerate(context.Background())
		if err != nil {
			return err
		}
		sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })

		out := cmd.OutOrStdout()
		for _, a := range attrs {
			fmt.Fprintf(out, "%s=%q\n", a.Name, a.Value)
		}
		return nil
	},
}
