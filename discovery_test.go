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
	"errors"
	"testing"

	cr95hftest "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTagSingleCascade(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	// The check byte 0x06 does not match the UID bytes; discovery must
	// not validate it host-side
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAClassic1K))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildRawAnticollisionResponse([]byte{0x01, 0x02, 0x03, 0x04, 0x06}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x08))

	tag, err := device.DetectTag()
	require.NoError(t, err)

	assert.Equal(t, "01020304", tag.UID)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, tag.UIDBytes)
	assert.Equal(t, byte(0x08), tag.SAK)
	assert.Equal(t, cr95hftest.TestATQAClassic1K, tag.ATQA)
	assert.Equal(t, TagTypeMIFARE, tag.Type)
	assert.Equal(t, "MIFARE Classic 1K", tag.CardType())
	assert.False(t, tag.DetectedAt.IsZero())
}

func TestDetectTagFrameSequence(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAClassic1K))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildAnticollisionResponse([]byte{0x01, 0x02, 0x03, 0x04}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x08))

	_, err := device.DetectTag()
	require.NoError(t, err)

	var rfFrames [][]byte
	for _, frame := range mock.SentFrames() {
		if frame[0] == cmdSendRecv {
			rfFrames = append(rfFrames, frame)
		}
	}
	require.Len(t, rfFrames, 3)

	// WUPA as a 7-bit short frame, anticollision unframed, selection with CRC.
	// BCC of 01 02 03 04 is 0x04.
	assert.Equal(t, []byte{cmdSendRecv, iso14443aWUPA, flagShortFrame}, rfFrames[0])
	assert.Equal(t, []byte{cmdSendRecv, iso14443aSelCL1, iso14443aNVBAnti, flagStandard}, rfFrames[1])
	assert.Equal(t, []byte{
		cmdSendRecv, iso14443aSelCL1, iso14443aNVBSelect,
		0x01, 0x02, 0x03, 0x04, 0x04, flagStandardCRC,
	}, rfFrames[2])
}

func TestDetectTagDoubleCascade(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	// Check bytes are deliberately wrong: the host echoes them back and
	// lets the chip's selection response arbitrate
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAUltralight))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildRawAnticollisionResponse([]byte{iso14443aCascadeTag, 0x11, 0x22, 0x33, 0xAA}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x20)) // intermediate SAK
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildRawAnticollisionResponse([]byte{0x44, 0x55, 0x66, 0x77, 0xBB}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x00))

	tag, err := device.DetectTag()
	require.NoError(t, err)

	assert.Equal(t, "11223344556677", tag.UID)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}, tag.UIDBytes)
	assert.Equal(t, byte(0x00), tag.SAK)
	assert.Equal(t, TagTypeNTAG, tag.Type)
	assert.Equal(t, 5, mock.GetCallCount(cmdSendRecv))
}

func TestDetectTagREQAFallback(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	// Silent on WUPA, answers REQA
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAClassic1K))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildAnticollisionResponse([]byte{0x01, 0x02, 0x03, 0x04}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x08))

	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, "01020304", tag.UID)

	var rfFrames [][]byte
	for _, frame := range mock.SentFrames() {
		if frame[0] == cmdSendRecv {
			rfFrames = append(rfFrames, frame)
		}
	}
	require.Len(t, rfFrames, 4)
	assert.Equal(t, []byte{cmdSendRecv, iso14443aWUPA, flagShortFrame}, rfFrames[0])
	assert.Equal(t, []byte{cmdSendRecv, iso14443aREQA, flagShortFrame}, rfFrames[1])
}

func TestDetectTagNoTag(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())

	tag, err := device.DetectTag()
	require.ErrorIs(t, err, ErrNoTagDetected)
	assert.Nil(t, tag)
	assert.Equal(t, 2, mock.GetCallCount(cmdSendRecv))
}

func TestDetectTagCascade2FailureDiscardsPrefix(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAUltralight))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildAnticollisionResponse([]byte{iso14443aCascadeTag, 0x11, 0x22, 0x33}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x04))
	// Tag leaves the field before the second cascade level
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())

	tag, err := device.DetectTag()
	require.ErrorIs(t, err, ErrNoTagDetected)
	assert.Nil(t, tag)
}

func TestDetectTagTransportErrorDowngraded(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.SetError(cmdSendRecv, NewTimeoutError("waitResult", "mock"))

	_, err := device.DetectTag()
	assert.ErrorIs(t, err, ErrNoTagDetected)

	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
}

func TestDetectTagShortAnticollisionBlock(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAClassic1K))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildRawAnticollisionResponse([]byte{0x01, 0x02, 0x03}))

	_, err := device.DetectTag()
	assert.ErrorIs(t, err, ErrNoTagDetected)
}

func TestDetectTagRequiresInit(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport())
	require.NoError(t, err)

	_, err = device.DetectTag()
	assert.ErrorIs(t, err, ErrDeviceNotInitialized)
}

func TestDetectTagContextCancelled(t *testing.T) {
	t.Parallel()

	device, _ := newInitializedDevice(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := device.DetectTagContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLastATQAPersistsAcrossFailedAttempts(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	assert.Equal(t, [2]byte{}, device.LastATQA())

	// Attempt 1: ATQA received, anticollision fails
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAUltralight))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())
	_, err := device.DetectTag()
	require.ErrorIs(t, err, ErrNoTagDetected)
	assert.Equal(t, cr95hftest.TestATQAUltralight, device.LastATQA())

	// Attempt 2: nothing in the field, last ATQA survives
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())
	_, err = device.DetectTag()
	require.ErrorIs(t, err, ErrNoTagDetected)
	assert.Equal(t, cr95hftest.TestATQAUltralight, device.LastATQA())

	// Attempt 3: a different tag overwrites the value
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildATQAResponse(cr95hftest.TestATQAClassic1K))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildAnticollisionResponse([]byte{0x01, 0x02, 0x03, 0x04}))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildSelectResponse(0x08))
	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, cr95hftest.TestATQAClassic1K, device.LastATQA())
	assert.Equal(t, cr95hftest.TestATQAClassic1K, tag.ATQA)
}
