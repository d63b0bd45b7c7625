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
	"time"
)

// Transport defines the framed command/response interface to a CR95HF.
// This can be implemented by UART or SPI backends.
//
// A transport instance owns its channel exclusively: calls are strictly
// sequential and no internal locking is required of implementations on
// the wire path.
type Transport interface {
	// WakeUp brings the chip out of low-power mode: a null-byte burst
	// for the given pulse duration, an oscillator settle wait, then a
	// drain of any garbage produced during wake.
	WakeUp(pulse time.Duration) error

	// Echo performs the bare echo self-test round trip. It is not a
	// framed exchange: a single 0x55 byte is written and the identical
	// byte is expected back within the configured timeout.
	Echo() error

	// SendCommand performs one framed exchange: drain stale input, write
	// [cmd, len(args)] + args, then read one response frame. The returned
	// slice is [result code, payload...]; the length byte is consumed by
	// framing.
	SendCommand(cmd byte, args []byte) ([]byte, error)

	// SetTimeout sets the response deadline for SendCommand and Echo
	SetTimeout(timeout time.Duration) error

	// Close closes the transport connection
	Close() error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
