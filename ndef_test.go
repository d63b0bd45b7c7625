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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParseRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := BuildNDEFData(&NDEFMessage{
		Records: []NDEFRecord{{Type: NDEFTypeText, Text: "hi there"}},
	})
	require.NoError(t, err)
	assert.Equal(t, byte(tlvNDEF), data[0])
	assert.Equal(t, byte(tlvTerminator), data[len(data)-1])

	msg, err := ParseNDEFMessage(data)
	require.NoError(t, err)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, NDEFTypeText, msg.Records[0].Type)
	assert.Equal(t, "hi there", msg.Records[0].Text)
}

func TestBuildNDEFDataURI(t *testing.T) {
	t.Parallel()

	data, err := BuildNDEFData(&NDEFMessage{
		Records: []NDEFRecord{{Type: NDEFTypeURI, URI: "https://example.com"}},
	})
	require.NoError(t, err)

	msg, err := ParseNDEFMessage(data)
	require.NoError(t, err)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, NDEFTypeURI, msg.Records[0].Type)
	assert.Equal(t, "https://example.com", msg.Records[0].URI)
}

func TestBuildNDEFDataRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := BuildNDEFData(nil)
	assert.ErrorIs(t, err, ErrInvalidNDEF)

	_, err = BuildNDEFData(&NDEFMessage{})
	assert.ErrorIs(t, err, ErrInvalidNDEF)

	_, err = BuildNDEFData(&NDEFMessage{
		Records: []NDEFRecord{{Type: NDEFTypeUnknown}},
	})
	assert.ErrorIs(t, err, ErrInvalidNDEF)
}

func TestValidateNDEFMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		data    []byte
	}{
		{
			name: "ndef tlv present",
			data: []byte{0x03, 0x05, 0xD1, 0x01, 0x01, 0x54, 0x02},
		},
		{
			name: "ndef tlv after null padding",
			data: []byte{0x00, 0x00, 0x03, 0x03, 0xD1, 0x01, 0x01, 0xFE},
		},
		{
			name:    "empty memory",
			data:    nil,
			wantErr: ErrNoNDEF,
		},
		{
			name:    "terminator before ndef tlv",
			data:    []byte{0xFE, 0x03, 0x02, 0xAA, 0xBB},
			wantErr: ErrNoNDEF,
		},
		{
			name:    "tlv longer than memory",
			data:    []byte{0x03, 0x10, 0x01, 0x02},
			wantErr: ErrInvalidNDEF,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateNDEFMessage(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindNDEFTLV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		want      []byte
		wantFound bool
	}{
		{
			name:      "first block",
			data:      []byte{0x03, 0x03, 0xD1, 0x01, 0x01},
			want:      []byte{0xD1, 0x01, 0x01},
			wantFound: true,
		},
		{
			name:      "behind a lock tlv",
			data:      []byte{0x01, 0x01, 0xAA, 0x03, 0x02, 0xBB, 0xCC, 0xFE},
			want:      []byte{0xBB, 0xCC},
			wantFound: true,
		},
		{
			name:      "long form length",
			data:      []byte{0x03, 0xFF, 0x00, 0x02, 0xAA, 0xBB},
			want:      []byte{0xAA, 0xBB},
			wantFound: true,
		},
		{
			name: "only foreign tlvs",
			data: []byte{0x01, 0x02, 0xAA, 0xBB, 0x02, 0x01, 0xCC},
		},
		{
			name:      "zero-length ndef tlv",
			data:      []byte{0x03, 0x00},
			want:      []byte{},
			wantFound: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found, err := findNDEFTLV(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTLVLength(t *testing.T) {
	t.Parallel()

	length, start, err := parseTLVLength([]byte{0x03, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05}, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, length)
	assert.Equal(t, 2, start)

	length, start, err = parseTLVLength([]byte{0x03, 0xFF, 0x01, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, 256, length)
	assert.Equal(t, 4, start)

	_, _, err = parseTLVLength([]byte{0x03}, 0)
	assert.ErrorIs(t, err, ErrInvalidNDEF)

	_, _, err = parseTLVLength([]byte{0x03, 0xFF, 0x01}, 0)
	assert.ErrorIs(t, err, ErrInvalidNDEF)
}

func TestSkipTLV(t *testing.T) {
	t.Parallel()

	// T + L + three value bytes
	assert.Equal(t, 5, skipTLV([]byte{0x01, 0x03, 0xAA, 0xBB, 0xCC, 0x02}, 0))
	// zero-length block
	assert.Equal(t, 2, skipTLV([]byte{0x01, 0x00, 0x02}, 0))
	// offset past the end still advances
	assert.Equal(t, 5, skipTLV([]byte{0x01, 0x02, 0xAA, 0xBB}, 4))
}

func TestExtractNDEFPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{
			name: "tlv at start",
			data: []byte{0x03, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05},
			want: []byte{0x01, 0x02, 0x03, 0x04, 0x05},
		},
		{
			name: "tlv after padding",
			data: []byte{0x00, 0x00, 0x03, 0x03, 0xAA, 0xBB, 0xCC},
			want: []byte{0xAA, 0xBB, 0xCC},
		},
		{
			name: "no tlv byte",
			data: []byte{0x00, 0x01, 0x02},
			want: nil,
		},
		{
			name: "empty input",
			data: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extractNDEFPayload(tt.data))
		})
	}
}

func TestExtractTLVPayload(t *testing.T) {
	t.Parallel()

	// short form
	assert.Equal(t, []byte{0x01, 0x02}, extractTLVPayload([]byte{0x03, 0x02, 0x01, 0x02}, 0))
	// long form
	assert.Equal(t, []byte{0xAA, 0xBB}, extractTLVPayload([]byte{0x03, 0xFF, 0x00, 0x02, 0xAA, 0xBB}, 0))
	// length claims more than available
	assert.Nil(t, extractTLVPayload([]byte{0x03, 0x05, 0x01, 0x02}, 0))
	// truncated long-form length
	assert.Nil(t, extractTLVPayload([]byte{0x03, 0xFF, 0x01}, 0))
	// offset past the usable range
	assert.Nil(t, extractTLVPayload([]byte{0x03, 0x02}, 2))
}
