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

package cr95hf

// CR95HF command codes
const (
	cmdIDN            = 0x01
	cmdProtocolSelect = 0x02
	cmdSendRecv       = 0x04
	cmdEcho           = 0x55
)

// CR95HF result codes
const (
	rspSuccess   = 0x00
	rspData      = 0x80
	rspRFTimeout = 0x87 // informational only, host-side clocks decide timeouts
)

// Protocol codes for the protocol-select command
const (
	protoFieldOff  = 0x00
	protoISO14443A = 0x02
)

// ISO14443-A frame bytes
const (
	iso14443aREQA       = 0x26
	iso14443aWUPA       = 0x52
	iso14443aCascadeTag = 0x88
	iso14443aSelCL1     = 0x93
	iso14443aSelCL2     = 0x95
	iso14443aNVBAnti    = 0x20
	iso14443aNVBSelect  = 0x70
)

// Transmit flags appended as the final byte of send-receive payloads
const (
	flagShortFrame  = 0x07 // 7-bit short frame, REQA/WUPA only
	flagStandard    = 0x08
	flagStandardCRC = 0x28
)

// ISO14443-A tag commands used for type-2 block access
const (
	t2CmdRead  = 0x30
	t2CmdWrite = 0xA2
)
