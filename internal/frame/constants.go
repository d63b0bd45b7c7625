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

// Package frame provides wire constants and helpers shared by the CR95HF
// transports and test infrastructure.
//
// The CR95HF wire format is a bare length-prefixed frame with no
// delimiters: requests are [command, length, payload...], responses are
// [result, length, payload...]. The length byte is always the true payload
// byte count.
package frame

// CR95HF command codes
const (
	CmdIDN            = 0x01
	CmdProtocolSelect = 0x02
	CmdSendRecv       = 0x04
	CmdEcho           = 0x55
)

// CR95HF result codes
const (
	RspSuccess   = 0x00
	RspData      = 0x80
	RspRFTimeout = 0x87
)

// Protocol codes
const (
	ProtoFieldOff  = 0x00
	ProtoISO14443A = 0x02
)

// ISO14443-A bytes
const (
	REQA       = 0x26
	WUPA       = 0x52
	CascadeTag = 0x88
	SelCL1     = 0x93
	SelCL2     = 0x95
	NVBAnti    = 0x20
	NVBSelect  = 0x70
)

// Transmit flags appended to send-receive payloads
const (
	FlagShortFrame  = 0x07
	FlagStandard    = 0x08
	FlagStandardCRC = 0x28
)

// Frame size limits
const (
	// MaxPayload is the largest payload the one-byte length field can carry
	MaxPayload = 255
	// HeaderLen is command/result byte plus length byte
	HeaderLen = 2
)

// WakeBurstLen is the size of one null-byte wake burst chunk
const WakeBurstLen = 20

// BuildCommand assembles a request frame for a command and payload
func BuildCommand(cmd byte, payload []byte) []byte {
	frame := make([]byte, 0, HeaderLen+len(payload))
	frame = append(frame, cmd, byte(len(payload)))
	frame = append(frame, payload...)
	return frame
}
