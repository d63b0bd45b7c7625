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

// Package testing provides canned responses, test identities, and virtual
// CR95HF/tag simulators shared by the library's tests.
package testing

import (
	"github.com/ZaparooProject/go-cr95hf/internal/frame"
)

// Command byte re-exports so tests read naturally without importing frame
const (
	CmdIDN            = frame.CmdIDN
	CmdProtocolSelect = frame.CmdProtocolSelect
	CmdSendRecv       = frame.CmdSendRecv
	CmdEcho           = frame.CmdEcho
)

// TestDeviceName is the identity string the virtual chip reports
const TestDeviceName = "NFC FS2JAST4"

// Canned responses below are in the post-framing [result, payload...] shape
// that Transport.SendCommand returns.

// BuildIDNResponse creates an identification response carrying the given
// device name followed by a null and a two-byte ROM CRC
func BuildIDNResponse(name string) []byte {
	payload := make([]byte, 0, 15)
	payload = append(payload, []byte(name)...)
	for len(payload) < 13 {
		payload = append(payload, 0x00)
	}
	payload = append(payload, 0x2A, 0xCE) // ROM CRC
	return append([]byte{frame.RspSuccess}, payload...)
}

// BuildProtocolSelectResponse creates a successful protocol-select response
func BuildProtocolSelectResponse() []byte {
	return []byte{frame.RspSuccess}
}

// BuildATQAResponse creates a send-receive response carrying a 2-byte ATQA
func BuildATQAResponse(atqa [2]byte) []byte {
	return []byte{frame.RspData, atqa[0], atqa[1]}
}

// BuildAnticollisionResponse creates a send-receive response carrying the
// 5-byte cascade-level block (4 bytes plus BCC) for the given 4 bytes
func BuildAnticollisionResponse(cascade []byte) []byte {
	resp := []byte{frame.RspData}
	return append(resp, frame.WithBCC(cascade)...)
}

// BuildRawAnticollisionResponse creates an anticollision response from a
// pre-built 5-byte block, without computing the check byte
func BuildRawAnticollisionResponse(block []byte) []byte {
	return append([]byte{frame.RspData}, block...)
}

// BuildSelectResponse creates a send-receive response carrying a SAK
func BuildSelectResponse(sak byte) []byte {
	return []byte{frame.RspData, sak}
}

// BuildNoTagResponse creates the RF-timeout response an unanswered RF
// command produces
func BuildNoTagResponse() []byte {
	return []byte{frame.RspRFTimeout}
}

// BuildReadResponse creates a type-2 READ response of 16 data bytes
func BuildReadResponse(data []byte) []byte {
	return append([]byte{frame.RspData}, data...)
}

// BuildWriteAckResponse creates a type-2 WRITE acknowledge response
func BuildWriteAckResponse() []byte {
	return []byte{frame.RspData, 0x0A}
}

// Common identities for testing
var (
	// TestNTAG213UID is a sample 7-byte NTAG213 UID (NXP manufacturer code)
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample 4-byte MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestATQAUltralight is the ATQA an NTAG/Ultralight answers with
	TestATQAUltralight = [2]byte{0x44, 0x00}

	// TestATQAClassic1K is the ATQA a MIFARE Classic 1K answers with
	TestATQAClassic1K = [2]byte{0x04, 0x00}
)
