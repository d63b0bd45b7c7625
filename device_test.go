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
	"testing"
	"time"

	cr95hftest "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBringUpMock returns a mock transport that answers the bring-up
// sequence successfully
func newBringUpMock(t *testing.T) *MockTransport {
	t.Helper()

	mock := NewMockTransport()
	mock.SetResponse(cmdIDN, cr95hftest.BuildIDNResponse(cr95hftest.TestDeviceName))
	mock.SetResponse(cmdProtocolSelect, cr95hftest.BuildProtocolSelectResponse())
	return mock
}

// newInitializedDevice returns a device that has completed bring-up on a
// mock transport
func newInitializedDevice(t *testing.T) (*Device, *MockTransport) {
	t.Helper()

	mock := newBringUpMock(t)
	device, err := New(mock)
	require.NoError(t, err)
	require.NoError(t, device.Init())
	return device, mock
}

func TestNewWithOptions(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock,
		WithWakePulse(50*time.Millisecond),
		WithBringUpTimeout(200*time.Millisecond),
		WithExchangeTimeout(25*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, mock, device.Transport())
	assert.Equal(t, 50*time.Millisecond, device.config.WakePulse)
	assert.Equal(t, 200*time.Millisecond, device.config.BringUpTimeout)
	assert.Equal(t, 25*time.Millisecond, device.config.ExchangeTimeout)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opt  Option
		name string
	}{
		{name: "zero wake pulse", opt: WithWakePulse(0)},
		{name: "negative bring-up timeout", opt: WithBringUpTimeout(-time.Second)},
		{name: "zero exchange timeout", opt: WithExchangeTimeout(0)},
		{name: "zero timeout alias", opt: WithTimeout(0)},
		{name: "nil device config", opt: WithDeviceConfig(nil)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(NewMockTransport(), tt.opt)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestDeviceConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultDeviceConfig().Validate())

	bad := DefaultDeviceConfig()
	bad.ExchangeTimeout = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParameter)

	var nilConfig *DeviceConfig
	assert.ErrorIs(t, nilConfig.Validate(), ErrInvalidParameter)
}

func TestInit(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	assert.Equal(t, 1, mock.WakeCalls())
	assert.Equal(t, 1, mock.GetCallCount(cmdIDN))
	assert.Equal(t, 1, mock.GetCallCount(cmdProtocolSelect))
	assert.Equal(t, "NFC FS2JAST4", device.DeviceName())
}

func TestInitSelectsISO14443A(t *testing.T) {
	t.Parallel()

	_, mock := newInitializedDevice(t)

	frames := mock.SentFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{cmdIDN}, frames[0])
	assert.Equal(t, []byte{cmdProtocolSelect, protoISO14443A, 0x00}, frames[1])
}

func TestInitEchoFailureStopsBringUp(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	mock.SetEchoError(NewEchoMismatchError("echo", "mock", 0xFF))

	device, err := New(mock)
	require.NoError(t, err)

	err = device.Init()
	require.Error(t, err)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitPhaseEcho, initErr.Phase)
	assert.ErrorIs(t, err, ErrEchoMismatch)

	// Bring-up must not proceed past a failed self-test
	assert.Equal(t, 0, mock.GetCallCount(cmdIDN))
	assert.Empty(t, device.DeviceName())
}

func TestInitWakeFailure(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	require.NoError(t, mock.Close())

	device, err := New(mock)
	require.NoError(t, err)

	err = device.Init()
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitPhaseWake, initErr.Phase)
}

func TestInitShortIdentityPayload(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	mock.SetResponse(cmdIDN, []byte{rspSuccess, 'N', 'F', 'C'})

	device, err := New(mock)
	require.NoError(t, err)

	err = device.Init()
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitPhaseIdentify, initErr.Phase)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestInitIdentifyBadResultCode(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	mock.SetResponse(cmdIDN, []byte{0x82})

	device, err := New(mock)
	require.NoError(t, err)

	err = device.Init()
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitPhaseIdentify, initErr.Phase)
}

func TestInitProtocolSelectFailure(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	mock.SetResponse(cmdProtocolSelect, []byte{0x82})

	device, err := New(mock)
	require.NoError(t, err)

	err = device.Init()
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitPhaseProtocol, initErr.Phase)
}

func TestParseDeviceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		raw  []byte
	}{
		{name: "name with null padding", raw: []byte{'N', 'F', 'C', 0x00, 0xAB, 0xCD}, want: "NFC"},
		{name: "full width", raw: []byte("NFC FS2JAST4"), want: "NFC FS2JAST4"},
		{name: "leading null", raw: []byte{0x00, 'N', 'F', 'C'}, want: ""},
		{name: "non-printable skipped", raw: []byte{'N', 0x01, 'F', 'C'}, want: "NFC"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseDeviceName(tt.raw))
		})
	}
}

func TestSetTimeout(t *testing.T) {
	t.Parallel()

	device, _ := newInitializedDevice(t)

	assert.ErrorIs(t, device.SetTimeout(0), ErrInvalidParameter)
	assert.ErrorIs(t, device.SetTimeout(-time.Second), ErrInvalidParameter)
	require.NoError(t, device.SetTimeout(30*time.Millisecond))
	assert.Equal(t, 30*time.Millisecond, device.config.ExchangeTimeout)
}

func TestCloseTurnsFieldOff(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	require.NoError(t, device.Close())

	frames := mock.SentFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, []byte{cmdProtocolSelect, protoFieldOff, 0x00}, frames[len(frames)-1])
	assert.False(t, mock.IsConnected())
}

func TestCloseBeforeInitSkipsFieldOff(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.Close())
	assert.Equal(t, 0, mock.GetCallCount(cmdProtocolSelect))
	assert.False(t, mock.IsConnected())
}

func TestFieldOffBestEffort(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.SetError(cmdProtocolSelect, errors.New("wire fault"))

	// Field off never propagates transport faults
	require.NoError(t, device.FieldOff())
}

func TestConnectDeviceManualPath(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	var gotPath string

	device, err := ConnectDevice("/dev/ttyUSB0",
		WithTransportFactory(func(path string) (Transport, error) {
			gotPath = path
			return mock, nil
		}),
		WithConnectTimeout(25*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", gotPath)
	assert.Equal(t, "NFC FS2JAST4", device.DeviceName())
	assert.Equal(t, 25*time.Millisecond, device.config.ExchangeTimeout)
}

func TestConnectDeviceWithoutFactory(t *testing.T) {
	t.Parallel()

	_, err := ConnectDevice("/dev/ttyUSB0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport factory not provided")
}

func TestConnectDeviceInitFailureClosesTransport(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	mock.SetEchoError(NewTimeoutError("echo", "mock"))

	_, err := ConnectDevice("/dev/ttyUSB0",
		WithTransportFactory(func(string) (Transport, error) {
			return mock, nil
		}),
	)
	require.Error(t, err)
	assert.False(t, mock.IsConnected())
}

func TestConnectDeviceAppliesDeviceOptions(t *testing.T) {
	t.Parallel()

	mock := newBringUpMock(t)
	device, err := ConnectDevice("mock",
		WithTransportFactory(func(string) (Transport, error) {
			return mock, nil
		}),
		WithDeviceOptions(WithExchangeTimeout(75*time.Millisecond)),
	)
	require.NoError(t, err)
	assert.Equal(t, 75*time.Millisecond, device.config.ExchangeTimeout)
}
