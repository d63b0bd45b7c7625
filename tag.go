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
	"encoding/hex"
	"fmt"
	"time"
)

// TagType represents the type of NFC tag
type TagType string

const (
	// TagTypeNTAG represents NTAG and MIFARE Ultralight tag types.
	TagTypeNTAG TagType = "NTAG"
	// TagTypeMIFARE represents MIFARE Classic tag types.
	TagTypeMIFARE TagType = "MIFARE"
	// TagTypeUnknown represents unknown tag types.
	TagTypeUnknown TagType = "UNKNOWN"
	// TagTypeAny represents any tag type (for filtering)
	TagTypeAny TagType = "ANY"
)

// Manufacturer represents the chip manufacturer identified from the UID.
// The first byte of a 7-byte UID contains the manufacturer code per ISO/IEC 7816-6.
type Manufacturer string

const (
	// ManufacturerNXP is NXP Semiconductors (0x04) - maker of genuine NTAG chips.
	ManufacturerNXP Manufacturer = "NXP"
	// ManufacturerST is STMicroelectronics (0x02).
	ManufacturerST Manufacturer = "STMicroelectronics"
	// ManufacturerInfineon is Infineon Technologies (0x05).
	ManufacturerInfineon Manufacturer = "Infineon"
	// ManufacturerTI is Texas Instruments (0x07).
	ManufacturerTI Manufacturer = "Texas Instruments"
	// ManufacturerUnknown indicates an unrecognized manufacturer code.
	ManufacturerUnknown Manufacturer = "Unknown"
)

// GetManufacturer returns the chip manufacturer based on the UID's first byte.
// For 7-byte UIDs the first byte is the manufacturer code; for 4-byte UIDs
// the result is less reliable.
func GetManufacturer(uid []byte) Manufacturer {
	if len(uid) == 0 {
		return ManufacturerUnknown
	}

	switch uid[0] {
	case 0x04:
		return ManufacturerNXP
	case 0x02:
		return ManufacturerST
	case 0x05:
		return ManufacturerInfineon
	case 0x07:
		return ManufacturerTI
	default:
		return ManufacturerUnknown
	}
}

// DetectedTag holds the result of one successful discovery attempt.
// A DetectedTag always carries a non-empty UID; absence is reported as
// ErrNoTagDetected, never as a zero UID.
type DetectedTag struct {
	DetectedAt time.Time
	UID        string
	UIDBytes   []byte
	Type       TagType
	ATQA       [2]byte
	SAK        byte
}

// CardType returns the human-readable card family label for this tag's SAK
func (t *DetectedTag) CardType() string {
	return CardType(t.SAK)
}

// Manufacturer returns the chip manufacturer derived from the UID
func (t *DetectedTag) Manufacturer() Manufacturer {
	return GetManufacturer(t.UIDBytes)
}

// cardTypes maps SAK bytes to known vendor/family labels
var cardTypes = map[byte]string{
	0x00: "MIFARE Ultralight/NTAG",
	0x08: "MIFARE Classic 1K",
	0x09: "MIFARE Mini",
	0x10: "MIFARE Plus 2K",
	0x11: "MIFARE Plus 4K",
	0x18: "MIFARE Classic 4K",
	0x20: "MIFARE Plus/DESFire",
	0x28: "JCOP/SmartMX",
	0x38: "MIFARE Classic 4K (emu)",
	0x88: "MIFARE Classic 1K (Infineon)",
	0x98: "MIFARE ProX",
}

// CardType classifies a SAK byte into a human-readable card family label.
// Unmapped codes produce a label carrying the raw SAK value rather than
// failing.
func CardType(sak byte) string {
	if label, ok := cardTypes[sak]; ok {
		return label
	}
	return fmt.Sprintf("Unknown (SAK=0x%02X)", sak)
}

// tagTypeFromSAK maps a SAK byte to the tag family used for tag handlers
func tagTypeFromSAK(sak byte) TagType {
	switch sak {
	case 0x00:
		return TagTypeNTAG
	case 0x08, 0x09, 0x18, 0x38, 0x88:
		return TagTypeMIFARE
	default:
		return TagTypeUnknown
	}
}

// uidString formats a UID as an uppercase hex string
func uidString(uid []byte) string {
	return hex.EncodeToString(uid)
}

// Tag represents an NFC tag interface
type Tag interface {
	// Type returns the tag type
	Type() TagType

	// UID returns the tag's unique identifier as hex string
	UID() string

	// UIDBytes returns the tag's unique identifier as bytes
	UIDBytes() []byte

	// ReadBlock reads a block of data from the tag
	ReadBlock(ctx context.Context, block uint8) ([]byte, error)

	// WriteBlock writes a block of data to the tag
	WriteBlock(ctx context.Context, block uint8, data []byte) error

	// ReadNDEF reads NDEF data from the tag
	ReadNDEF(ctx context.Context) (*NDEFMessage, error)

	// WriteNDEF writes NDEF data to the tag
	WriteNDEF(ctx context.Context, message *NDEFMessage) error

	// ReadText reads the first text record from the tag's NDEF data
	ReadText(ctx context.Context) (string, error)

	// WriteText writes a simple text record to the tag
	WriteText(ctx context.Context, text string) error

	// Summary returns a brief summary of the tag
	Summary() string
}

// BaseTag provides common tag functionality
type BaseTag struct {
	device  *Device
	tagType TagType
	uid     []byte
	sak     byte
}

// Type returns the tag type
func (t *BaseTag) Type() TagType {
	return t.tagType
}

// UID returns the tag's unique identifier as hex string
func (t *BaseTag) UID() string {
	return uidString(t.uid)
}

// UIDBytes returns the tag's unique identifier as bytes
func (t *BaseTag) UIDBytes() []byte {
	return t.uid
}

// SAK returns the Select Acknowledge byte captured at discovery
func (t *BaseTag) SAK() byte {
	return t.sak
}

// Summary returns a brief summary of the tag
func (t *BaseTag) Summary() string {
	return fmt.Sprintf("%s tag UID=%s (%s)", t.tagType, t.UID(), CardType(t.sak))
}

// CreateTag builds the appropriate tag handler for a detected tag.
// MIFARE Classic block access requires authentication the CR95HF driver
// does not implement; Classic tags still get UID, SAK and classification
// through DetectedTag.
func (d *Device) CreateTag(detected *DetectedTag) (Tag, error) {
	if detected == nil || len(detected.UIDBytes) == 0 {
		return nil, ErrInvalidParameter
	}

	switch detected.Type {
	case TagTypeNTAG:
		return NewNTAGTag(d, detected.UIDBytes, detected.SAK), nil
	case TagTypeMIFARE, TagTypeUnknown, TagTypeAny:
		return nil, fmt.Errorf("%w: no block-level handler for %s (SAK 0x%02X)",
			ErrNotSupported, detected.Type, detected.SAK)
	default:
		return nil, fmt.Errorf("%w: unknown tag type %q", ErrInvalidParameter, detected.Type)
	}
}
