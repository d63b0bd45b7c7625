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
	"errors"
	"fmt"

	ndef "github.com/hsanjuan/go-ndef"
)

// NDEFRecordType represents the type of an NDEF record
type NDEFRecordType string

const (
	// NDEFTypeText represents a text record type
	NDEFTypeText NDEFRecordType = "text"
	// NDEFTypeURI represents a URI record type
	NDEFTypeURI NDEFRecordType = "uri"
	// NDEFTypeUnknown represents any other record type
	NDEFTypeUnknown NDEFRecordType = "unknown"
)

var (
	// ErrNoNDEF is returned when no NDEF record is found.
	ErrNoNDEF = errors.New("no NDEF record found")
	// ErrInvalidNDEF is returned when the NDEF format is invalid.
	ErrInvalidNDEF = errors.New("invalid NDEF format")
)

// TLV block types used by type-2 tag memory
const (
	tlvNull       = 0x00
	tlvNDEF       = 0x03
	tlvTerminator = 0xFE
)

// NDEFMessage represents an NDEF message
type NDEFMessage struct {
	Records []NDEFRecord
}

// NDEFRecord represents a single NDEF record
type NDEFRecord struct {
	Text    string
	URI     string
	Type    NDEFRecordType
	Payload []byte
}

// ParseNDEFMessage extracts the NDEF TLV from raw type-2 tag memory and
// decodes its records.
func ParseNDEFMessage(data []byte) (*NDEFMessage, error) {
	ndefData, found, err := findNDEFTLV(data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoNDEF
	}

	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(ndefData); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNDEF, err)
	}

	result := &NDEFMessage{Records: make([]NDEFRecord, 0, len(msg.Records))}
	for _, record := range msg.Records {
		result.Records = append(result.Records, convertRecord(record))
	}
	return result, nil
}

// convertRecord maps a go-ndef record onto the library's record type
func convertRecord(record *ndef.Record) NDEFRecord {
	payload, err := record.Payload()
	if err != nil {
		return NDEFRecord{Type: NDEFTypeUnknown}
	}

	out := NDEFRecord{Payload: payload.Marshal()}
	switch record.Type() {
	case "T":
		out.Type = NDEFTypeText
		out.Text = payload.String()
	case "U":
		out.Type = NDEFTypeURI
		out.URI = payload.String()
	default:
		out.Type = NDEFTypeUnknown
	}
	return out
}

// BuildNDEFData encodes a message as a type-2 NDEF TLV block with
// terminator, ready to be written to user memory.
func BuildNDEFData(message *NDEFMessage) ([]byte, error) {
	if message == nil || len(message.Records) == 0 {
		return nil, ErrInvalidNDEF
	}

	// Single-record messages cover the supported writes
	record := message.Records[0]
	var msg *ndef.Message
	switch record.Type {
	case NDEFTypeText:
		msg = ndef.NewTextMessage(record.Text, "en")
	case NDEFTypeURI:
		msg = ndef.NewURIMessage(record.URI)
	case NDEFTypeUnknown:
		return nil, fmt.Errorf("%w: cannot encode unknown record type", ErrInvalidNDEF)
	default:
		return nil, fmt.Errorf("%w: unsupported record type %q", ErrInvalidNDEF, record.Type)
	}

	payload, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal NDEF message: %w", err)
	}

	header, err := ndefTLVHeader(payload)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(header)+len(payload)+1)
	data = append(data, header...)
	data = append(data, payload...)
	data = append(data, tlvTerminator)
	return data, nil
}

// ndefTLVHeader builds the NDEF TLV header for a payload, using the long
// form for payloads of 255 bytes or more
func ndefTLVHeader(payload []byte) ([]byte, error) {
	length := len(payload)
	if length < 0xFF {
		return []byte{tlvNDEF, byte(length)}, nil
	}
	if length > 0xFFFF {
		return nil, fmt.Errorf("%w: NDEF payload %d bytes", ErrDataTooLarge, length)
	}
	return []byte{tlvNDEF, 0xFF, byte(length >> 8), byte(length)}, nil
}

// ValidateNDEFMessage checks that data holds a structurally complete NDEF TLV
func ValidateNDEFMessage(data []byte) error {
	_, found, err := findNDEFTLV(data)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoNDEF
	}
	return nil
}

// findNDEFTLV walks the TLV structure looking for the NDEF message block.
// Null TLVs are skipped as padding; the walk ends at the terminator.
func findNDEFTLV(data []byte) (ndefData []byte, found bool, err error) {
	i := 0
	for i < len(data) {
		switch data[i] {
		case tlvNull:
			i++
		case tlvTerminator:
			return nil, false, nil
		case tlvNDEF:
			length, start, err := parseTLVLength(data, i)
			if err != nil {
				return nil, false, err
			}
			if start+length > len(data) {
				return nil, false, fmt.Errorf("%w: TLV claims %d bytes, %d available",
					ErrInvalidNDEF, length, len(data)-start)
			}
			return data[start : start+length], true, nil
		default:
			i = skipTLV(data, i)
		}
	}
	return nil, false, nil
}

// parseTLVLength decodes a TLV length field at offset i, returning the
// value length and the offset where the value starts. 0xFF selects the
// 16-bit long form.
func parseTLVLength(data []byte, i int) (length, start int, err error) {
	if i+1 >= len(data) {
		return 0, 0, fmt.Errorf("%w: missing TLV length", ErrInvalidNDEF)
	}
	if data[i+1] == 0xFF {
		if i+3 >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated long-form TLV length", ErrInvalidNDEF)
		}
		return int(data[i+2])<<8 | int(data[i+3]), i + 4, nil
	}
	return int(data[i+1]), i + 2, nil
}

// skipTLV returns the offset just past the short-form TLV at offset i
func skipTLV(data []byte, i int) int {
	if i+1 >= len(data) {
		return i + 1
	}
	return i + 2 + int(data[i+1])
}

// extractNDEFPayload scans raw tag memory for the first NDEF TLV byte and
// extracts its payload. Unlike findNDEFTLV it does not walk enclosing TLVs;
// it is the fast path used when memory is known to start at the NDEF area.
func extractNDEFPayload(data []byte) []byte {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == tlvNDEF {
			return extractTLVPayload(data, i)
		}
	}
	return nil
}

// extractTLVPayload extracts the payload of the TLV at offset, dispatching
// on short or long length form
func extractTLVPayload(data []byte, offset int) []byte {
	if offset+1 >= len(data) {
		return nil
	}
	if data[offset+1] == 0xFF {
		return extractLongFormatPayload(data, offset)
	}
	return extractShortFormatPayload(data, offset)
}

// extractShortFormatPayload extracts a short-form TLV payload
func extractShortFormatPayload(data []byte, offset int) []byte {
	length := int(data[offset+1])
	start := offset + 2
	if start+length > len(data) {
		return nil
	}
	return data[start : start+length]
}

// extractLongFormatPayload extracts a long-form (16-bit length) TLV payload
func extractLongFormatPayload(data []byte, offset int) []byte {
	if offset+3 >= len(data) {
		return nil
	}
	length := int(data[offset+2])<<8 | int(data[offset+3])
	start := offset + 4
	if start+length > len(data) {
		return nil
	}
	return data[start : start+length]
}
