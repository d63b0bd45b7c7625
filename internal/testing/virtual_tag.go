// go-cr95hf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr95hf.
//
// go-cr95hf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr95hf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr95hf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package testing

import (
	"fmt"

	"github.com/ZaparooProject/go-cr95hf/internal/frame"
)

// VirtualTag models the ISO14443-A side of a proximity card: ATQA, cascade
// levels, SAK, and type-2 page memory for NTAG-style tags.
type VirtualTag struct {
	UID     []byte // 4 or 7 bytes
	ATQA    [2]byte
	SAK     byte
	Pages   [][]byte // 4-byte pages, type-2 layout
	Present bool
	Halted  bool // halted tags answer WUPA but not REQA
}

// NewVirtualNTAG213 creates a virtual NTAG213 with a 7-byte UID and an
// initialized capability container
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}
	tag := &VirtualTag{
		UID:     uid,
		ATQA:    TestATQAUltralight,
		SAK:     0x00,
		Pages:   make([][]byte, 45),
		Present: true,
	}
	for i := range tag.Pages {
		tag.Pages[i] = make([]byte, 4)
	}
	// Serial number pages and capability container
	copy(tag.Pages[0], uid[:3])
	copy(tag.Pages[1], uid[3:7])
	tag.Pages[3] = []byte{0xE1, 0x10, 0x12, 0x00} // NTAG213 CC
	// Empty NDEF TLV with terminator
	tag.Pages[4] = []byte{0x03, 0x00, 0xFE, 0x00}
	return tag
}

// NewVirtualMIFARE1K creates a virtual MIFARE Classic 1K with a 4-byte UID
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return &VirtualTag{
		UID:     uid,
		ATQA:    TestATQAClassic1K,
		SAK:     0x08,
		Present: true,
	}
}

// SetNDEFData writes raw TLV data into user memory starting at page 4
func (v *VirtualTag) SetNDEFData(data []byte) error {
	needed := (len(data) + 3) / 4
	if 4+needed > len(v.Pages) {
		return fmt.Errorf("NDEF data %d bytes exceeds tag memory", len(data))
	}
	for i := 0; i < needed; i++ {
		page := make([]byte, 4)
		copy(page, data[i*4:min(len(data), (i+1)*4)])
		v.Pages[4+i] = page
	}
	return nil
}

// cascadeLevels returns the anticollision blocks for each cascade level
func (v *VirtualTag) cascadeLevels() [][]byte {
	if len(v.UID) == 7 {
		cl1 := append([]byte{frame.CascadeTag}, v.UID[:3]...)
		return [][]byte{frame.WithBCC(cl1), frame.WithBCC(v.UID[3:7])}
	}
	return [][]byte{frame.WithBCC(v.UID[:4])}
}

// sakFor returns the SAK for a cascade level select. Intermediate levels of
// a 7-byte tag answer with the cascade bit set.
func (v *VirtualTag) sakFor(level int) byte {
	if len(v.UID) == 7 && level == 0 {
		return 0x04 | v.SAK // cascade bit
	}
	return v.SAK
}

// readPages answers a type-2 READ: 4 pages from the given start, wrapping
// with zero pages past the end
func (v *VirtualTag) readPages(start byte) []byte {
	out := make([]byte, 0, 16)
	for i := 0; i < 4; i++ {
		idx := int(start) + i
		if idx < len(v.Pages) && v.Pages[idx] != nil {
			out = append(out, v.Pages[idx]...)
		} else {
			out = append(out, 0x00, 0x00, 0x00, 0x00)
		}
	}
	return out
}

// writePage answers a type-2 WRITE for one 4-byte page
func (v *VirtualTag) writePage(page byte, data []byte) bool {
	if int(page) >= len(v.Pages) || len(data) != 4 {
		return false
	}
	copied := make([]byte, 4)
	copy(copied, data)
	v.Pages[page] = copied
	return true
}
