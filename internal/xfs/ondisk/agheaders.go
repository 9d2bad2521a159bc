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

package ondisk

import (
	"encoding/binary"

	"github.com/xfsimage/xfsinspect/internal/xfs/xfserror"
)

// AGF is the decoded allocation-group free-space header, used by the
// "agstat" report (SPEC_FULL.md §10) and otherwise not required for the
// inode/directory/extent hot path.
type AGF struct {
	SeqNo      uint32
	Length     uint32
	FreeBlocks uint32
	Longest    uint32
}

// DecodeAGF decodes the fixed-size AGF header.
func DecodeAGF(data []byte) (*AGF, error) {
	if len(data) < SizeofAGF {
		return nil, xfserror.Newf(xfserror.Corrupt, "agf: short buffer %d < %d", len(data), SizeofAGF)
	}
	if string(data[0:4]) != MagicAGF {
		return nil, xfserror.Newf(xfserror.Corrupt, "agf: bad magic %q", data[0:4])
	}
	be := binary.BigEndian
	return &AGF{
		SeqNo:      be.Uint32(data[8:12]),
		Length:     be.Uint32(data[12:16]),
		FreeBlocks: be.Uint32(data[20:24]),
		Longest:    be.Uint32(data[28:32]),
	}, nil
}

// AGI is the decoded allocation-group inode header.
type AGI struct {
	SeqNo      uint32
	Length     uint32
	Count      uint32
	Root       uint32
	FreeCount  uint32
	NewInode   uint64
	DirInode   uint64
}

// DecodeAGI decodes the fixed-size AGI header.
func DecodeAGI(data []byte) (*AGI, error) {
	if len(data) < SizeofAGI {
		return nil, xfserror.Newf(xfserror.Corrupt, "agi: short buffer %d < %d", len(data), SizeofAGI)
	}
	if string(data[0:4]) != MagicAGI {
		return nil, xfserror.Newf(xfserror.Corrupt, "agi: bad magic %q", data[0:4])
	}
	be := binary.BigEndian
	return &AGI{
		SeqNo:     be.Uint32(data[8:12]),
		Length:    be.Uint32(data[12:16]),
		Count:     be.Uint32(data[16:20]),
		Root:      be.Uint32(data[20:24]),
		FreeCount: be.Uint32(data[36:40]),
		NewInode:  uint64(be.Uint32(data[40:44])),
		DirInode:  uint64(be.Uint32(data[44:48])),
	}, nil
}
