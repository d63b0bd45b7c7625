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

package frame

// BCC computes the ISO14443-A block check character over 4 cascade-level
// bytes. The driver echoes the chip's anticollision bytes verbatim and does
// not validate BCC host-side; this helper exists for test tags that must
// produce well-formed anticollision responses.
func BCC(data []byte) byte {
	var bcc byte
	for _, b := range data {
		bcc ^= b
	}
	return bcc
}

// WithBCC appends the check byte to a copy of the 4 cascade-level bytes
func WithBCC(data []byte) []byte {
	out := make([]byte, 0, len(data)+1)
	out = append(out, data...)
	out = append(out, BCC(data))
	return out
}
