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

import (
	"fmt"
)

// Frame size limits. The one-byte length field caps command payloads at
// 255 bytes; RF data leaves one byte for the framing-mode flag.
const (
	// MaxFramePayload is the largest payload a command frame can carry
	MaxFramePayload = 255
	// MaxRFData is the largest RF payload for a send-receive exchange
	MaxRFData = MaxFramePayload - 1
)

// ValidateFramePayload rejects payloads the length byte cannot describe
func ValidateFramePayload(payload []byte) error {
	if len(payload) > MaxFramePayload {
		return fmt.Errorf("%w: payload %d bytes, frame limit %d", ErrDataTooLarge, len(payload), MaxFramePayload)
	}
	return nil
}

// ValidateRFData rejects RF payloads that cannot fit a frame together with
// the trailing framing-mode flag byte
func ValidateRFData(rfData []byte) error {
	if len(rfData) == 0 {
		return fmt.Errorf("%w: empty RF data", ErrInvalidParameter)
	}
	if len(rfData) > MaxRFData {
		return fmt.Errorf("%w: RF data %d bytes, limit %d", ErrDataTooLarge, len(rfData), MaxRFData)
	}
	return nil
}

// ValidateUID checks a resolved UID for the two legal ISO14443-A cascade
// shapes. A UID is never zero-length, truncated, or all zeros.
func ValidateUID(uid []byte) error {
	if len(uid) != 4 && len(uid) != 7 {
		return fmt.Errorf("%w: UID must be 4 or 7 bytes, got %d", ErrInvalidParameter, len(uid))
	}
	allZero := true
	for _, b := range uid {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return fmt.Errorf("%w: all-zero UID", ErrInvalidParameter)
	}
	return nil
}
