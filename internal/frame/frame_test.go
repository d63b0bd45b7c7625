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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{CmdIDN, 0x00}, BuildCommand(CmdIDN, nil))
	assert.Equal(t,
		[]byte{CmdProtocolSelect, 0x02, ProtoISO14443A, 0x00},
		BuildCommand(CmdProtocolSelect, []byte{ProtoISO14443A, 0x00}))

	// Length byte is the true payload count
	payload := make([]byte, MaxPayload)
	built := BuildCommand(CmdSendRecv, payload)
	assert.Len(t, built, HeaderLen+MaxPayload)
	assert.Equal(t, byte(MaxPayload), built[1])
}

func TestBCC(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x04), BCC([]byte{0x01, 0x02, 0x03, 0x04}))
	assert.Equal(t, byte(0x00), BCC([]byte{0xAA, 0xAA}))
	assert.Equal(t, byte(0x00), BCC(nil))
}

func TestWithBCC(t *testing.T) {
	t.Parallel()

	block := WithBCC([]byte{0x88, 0x04, 0xAB, 0xCD})
	assert.Equal(t, []byte{0x88, 0x04, 0xAB, 0xCD, 0x88 ^ 0x04 ^ 0xAB ^ 0xCD}, block)
}

func TestSmallBuffer(t *testing.T) {
	t.Parallel()

	buf := GetSmallBuffer(5)
	assert.Len(t, buf, 5)
	PutBuffer(buf)

	// Oversized requests fall back to a plain allocation
	big := GetSmallBuffer(64)
	assert.Len(t, big, 64)
	PutBuffer(big)
}
