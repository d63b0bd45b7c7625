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
	"bytes"
	"testing"
	"time"

	cr95hftest "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRawRequiresInit(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport())
	require.NoError(t, err)

	_, err = device.SendRaw([]byte{t2CmdRead, 0x04})
	assert.ErrorIs(t, err, ErrDeviceNotInitialized)
}

func TestSendRaw(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	page := bytes.Repeat([]byte{0xA5}, 16)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildReadResponse(page))

	resp, err := device.SendRaw([]byte{t2CmdRead, 0x04})
	require.NoError(t, err)
	assert.Equal(t, page, resp)

	// The CRC-appending framing flag rides as the final payload byte
	frames := mock.SentFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, []byte{cmdSendRecv, t2CmdRead, 0x04, flagStandardCRC}, frames[len(frames)-1])
}

func TestSendRawAppliesExchangeTimeout(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	require.NoError(t, device.SetTimeout(35*time.Millisecond))
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildReadResponse(make([]byte, 16)))

	_, err := device.SendRaw([]byte{t2CmdRead, 0x04})
	require.NoError(t, err)
	assert.Equal(t, 35*time.Millisecond, mock.Timeout())
}

func TestSendRawNonDataResult(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.QueueResponse(cmdSendRecv, cr95hftest.BuildNoTagResponse())

	_, err := device.SendRaw([]byte{t2CmdRead, 0x04})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommunicationFailed)
	assert.Contains(t, err.Error(), "0x87")
}

func TestSendRawEmptyData(t *testing.T) {
	t.Parallel()

	device, _ := newInitializedDevice(t)

	_, err := device.SendRaw(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSendRawOversizedData(t *testing.T) {
	t.Parallel()

	device, _ := newInitializedDevice(t)

	_, err := device.SendRaw(make([]byte, MaxRFData+1))
	assert.ErrorIs(t, err, ErrDataTooLarge)
}

func TestSendRawTransportError(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.SetError(cmdSendRecv, NewTimeoutError("waitResult", "mock"))

	_, err := device.SendRaw([]byte{t2CmdRead, 0x04})
	require.Error(t, err)

	// Raw exchanges surface transport faults, unlike discovery
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "waitResult", transportErr.Op)
}
