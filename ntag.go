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
	"context"
	"fmt"
)

// NTAGVariant identifies the NTAG21x family member from its capability container
type NTAGVariant string

const (
	// NTAG213 has 144 bytes of user memory (pages 4-39)
	NTAG213 NTAGVariant = "NTAG213"
	// NTAG215 has 504 bytes of user memory (pages 4-129)
	NTAG215 NTAGVariant = "NTAG215"
	// NTAG216 has 888 bytes of user memory (pages 4-225)
	NTAG216 NTAGVariant = "NTAG216"
	// NTAGUnknown is an NTAG/Ultralight with an unrecognized capability container
	NTAGUnknown NTAGVariant = "NTAG"
)

const (
	ntagPageSize    = 4
	ntagUserStart   = 4 // first user memory page
	ntagCCPage      = 3 // capability container page
	ntagReadLength  = 16
	ntagWriteAckLen = 1
)

// NTAGTag provides block-level and NDEF access to NTAG21x and MIFARE
// Ultralight tags through an initialized device.
type NTAGTag struct {
	BaseTag
	variant  NTAGVariant
	lastPage uint8
}

// NewNTAGTag creates an NTAG tag handler for a detected tag
func NewNTAGTag(device *Device, uid []byte, sak byte) *NTAGTag {
	return &NTAGTag{
		BaseTag: BaseTag{
			device:  device,
			tagType: TagTypeNTAG,
			uid:     uid,
			sak:     sak,
		},
		variant:  NTAGUnknown,
		lastPage: 39, // NTAG213 bound until the capability container says otherwise
	}
}

// Variant returns the detected NTAG family member. It is NTAGUnknown until
// DetectVariant or the first NDEF read inspects the capability container.
func (t *NTAGTag) Variant() NTAGVariant {
	return t.variant
}

// DetectVariant reads the capability container and sizes the tag.
// CC byte 2 encodes the data area size in units of 8 bytes.
func (t *NTAGTag) DetectVariant(ctx context.Context) (NTAGVariant, error) {
	cc, err := t.ReadBlock(ctx, ntagCCPage)
	if err != nil {
		return NTAGUnknown, fmt.Errorf("failed to read capability container: %w", err)
	}
	if len(cc) < ntagPageSize {
		return NTAGUnknown, fmt.Errorf("%w: capability container %d bytes", ErrInvalidResponse, len(cc))
	}

	switch cc[2] {
	case 0x12:
		t.variant, t.lastPage = NTAG213, 39
	case 0x3E:
		t.variant, t.lastPage = NTAG215, 129
	case 0x6D:
		t.variant, t.lastPage = NTAG216, 225
	default:
		t.variant, t.lastPage = NTAGUnknown, 39
	}
	return t.variant, nil
}

// ReadBlock reads 16 bytes starting at the given page using the type-2 READ
// command. The tag returns four pages per read.
func (t *NTAGTag) ReadBlock(ctx context.Context, block uint8) ([]byte, error) {
	resp, err := t.device.SendRawContext(ctx, []byte{t2CmdRead, block})
	if err != nil {
		return nil, fmt.Errorf("read page %d failed: %w", block, err)
	}
	if len(resp) < ntagReadLength {
		return nil, fmt.Errorf("%w: read returned %d bytes, want %d", ErrInvalidResponse, len(resp), ntagReadLength)
	}
	return resp[:ntagReadLength], nil
}

// WriteBlock writes one 4-byte page using the type-2 WRITE command
func (t *NTAGTag) WriteBlock(ctx context.Context, block uint8, data []byte) error {
	if len(data) != ntagPageSize {
		return fmt.Errorf("%w: page write needs %d bytes, got %d", ErrInvalidParameter, ntagPageSize, len(data))
	}
	if err := validateUserPage(block, t.lastPage); err != nil {
		return err
	}

	rfData := make([]byte, 0, 2+ntagPageSize)
	rfData = append(rfData, t2CmdWrite, block)
	rfData = append(rfData, data...)

	resp, err := t.device.SendRawContext(ctx, rfData)
	if err != nil {
		return fmt.Errorf("write page %d failed: %w", block, err)
	}
	// Type-2 ACK is the 0xA nibble; anything else is a NAK
	if len(resp) >= ntagWriteAckLen && resp[0]&0x0F != 0x0A {
		return fmt.Errorf("%w: write page %d not acknowledged (0x%02X)", ErrCommunicationFailed, block, resp[0])
	}
	return nil
}

// ReadNDEF reads the tag's user memory and parses the NDEF message
func (t *NTAGTag) ReadNDEF(ctx context.Context) (*NDEFMessage, error) {
	if t.variant == NTAGUnknown {
		if _, err := t.DetectVariant(ctx); err != nil {
			return nil, err
		}
	}

	data, err := t.readUserMemory(ctx)
	if err != nil {
		return nil, err
	}
	return ParseNDEFMessage(data)
}

// readUserMemory reads user pages until the tag's last page or the NDEF
// terminator TLV, whichever comes first
func (t *NTAGTag) readUserMemory(ctx context.Context) ([]byte, error) {
	var data []byte
	for page := uint8(ntagUserStart); page <= t.lastPage; page += ntagReadLength / ntagPageSize {
		chunk, err := t.ReadBlock(ctx, page)
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		if containsTerminator(chunk) {
			break
		}
	}
	return data, nil
}

// containsTerminator reports whether a chunk holds the 0xFE terminator TLV
func containsTerminator(chunk []byte) bool {
	for _, b := range chunk {
		if b == 0xFE {
			return true
		}
	}
	return false
}

// WriteNDEF encodes and writes an NDEF message into user memory
func (t *NTAGTag) WriteNDEF(ctx context.Context, message *NDEFMessage) error {
	if t.variant == NTAGUnknown {
		if _, err := t.DetectVariant(ctx); err != nil {
			return err
		}
	}

	data, err := BuildNDEFData(message)
	if err != nil {
		return err
	}

	capacity := (int(t.lastPage) - ntagUserStart + 1) * ntagPageSize
	if len(data) > capacity {
		return fmt.Errorf("%w: NDEF data %d bytes exceeds tag capacity %d", ErrDataTooLarge, len(data), capacity)
	}

	// Pad to a whole page and write page by page
	for len(data)%ntagPageSize != 0 {
		data = append(data, 0x00)
	}
	for i := 0; i < len(data); i += ntagPageSize {
		page := uint8(ntagUserStart + i/ntagPageSize)
		if err := t.WriteBlock(ctx, page, data[i:i+ntagPageSize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadText reads the first text record from the tag's NDEF data
func (t *NTAGTag) ReadText(ctx context.Context) (string, error) {
	msg, err := t.ReadNDEF(ctx)
	if err != nil {
		return "", err
	}
	for _, record := range msg.Records {
		if record.Type == NDEFTypeText {
			return record.Text, nil
		}
	}
	return "", ErrNoNDEF
}

// WriteText writes a single English text record to the tag
func (t *NTAGTag) WriteText(ctx context.Context, text string) error {
	return t.WriteNDEF(ctx, &NDEFMessage{
		Records: []NDEFRecord{{Type: NDEFTypeText, Text: text}},
	})
}

// Summary returns a brief summary of the tag
func (t *NTAGTag) Summary() string {
	return fmt.Sprintf("%s UID=%s (%s)", t.variant, t.UID(), CardType(t.sak))
}

// validateUserPage rejects writes outside the user memory area
func validateUserPage(block, lastPage uint8) error {
	if block < ntagUserStart || block > lastPage {
		return fmt.Errorf("%w: page %d outside user memory %d-%d", ErrInvalidParameter, block, ntagUserStart, lastPage)
	}
	return nil
}

// Ensure NTAGTag implements Tag
var _ Tag = (*NTAGTag)(nil)
