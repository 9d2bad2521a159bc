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
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xfsimage/xfsinspect/internal/xfs/fsentry"
)

var statJSON bool

type statView struct {
	Inode        uint64    `json:"inode"`
	Mode         string    `json:"mode"`
	Size         uint64    `json:"size"`
	LinkCount    uint32    `json:"link_count"`
	OwnerID      uint32    `json:"owner_id"`
	GroupID      uint32    `json:"group_id"`
	ProjectID    uint32    `json:"project_id"`
	AccessTime   time.Time `json:"access_time"`
	ModTime      time.Time `json:"mod_time"`
	ChangeTime   time.Time `json:"change_time"`
	CreationTime time.Time `json:"creation_time,omitempty"`
}

func newStatView(e *fsentry.Entry) statView {
	v := statView{
		Inode:      e.Number(),
		Mode:       e.Mode().String(),
		Size:       e.Size(),
		LinkCount:  e.LinkCount(),
		OwnerID:    e.OwnerID(),
		GroupID:    e.GroupID(),
		ProjectID:  e.ProjectID(),
		AccessTime: e.AccessTime(),
		ModTime:    e.ModTime(),
		ChangeTime: e.ChangeTime(),
	}
	if e.Inode().HasCreationTime() {
		v.CreationTime = e.CreationTime()
	}
	return v
}

var statCmd = &cobra.Command{
	Use:   "stat <image>:<path>",
	Short: "Print an entry's inode metadata",
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

		view := newStatView(e)
		out := cmd.OutOrStdout()
		if statJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}

		fmt.Fprintf(out, "Inode:       %d\n", view.Inode)
		fmt.Fprintf(out, "Mode:        %s\n", view.Mode)
		fmt.Fprintf(out, "Size:        %d\n", view.Size)
		fmt.Fprintf(out, "Links:       %d\n", view.LinkCount)
		fmt.Fprintf(out, "Owner/Group: %d/%d\n", view.OwnerID, view.GroupID)
		fmt.Fprintf(out, "Project ID:  %d\n", view.ProjectID)
		fmt.Fprintf(out, "Access:      %s\n", view.AccessTime)
		fmt.Fprintf(out, "Modify:      %s\n", view.ModTime)
		fmt.Fprintf(out, "Change:      %s\n", view.ChangeTime)
		if e.Inode().HasCreationTime() {
			fmt.Fprintf(out, "Birth:       %s\n", view.CreationTime)
		}
		return nil
	},
}

func init() {
	statCmd.Flags().BoolVar(&statJSON, "json", false, "print metadata as JSON")
}
