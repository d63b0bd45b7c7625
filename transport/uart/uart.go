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

// Package uart provides a UART transport for the CR95HF.
//
// The CR95HF serial interface runs at 57600 baud with 8 data bits, no
// parity, and two stop bits. The two stop bits are not optional: with a
// single stop bit the chip drops frames intermittently.
package uart

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/internal/frame"
	"go.bug.st/serial"
)

const (
	baudRate = 57600

	// defaultTimeout is the response deadline before SetTimeout is called
	defaultTimeout = 50 * time.Millisecond

	// readPollWindow is the per-Read slice of the response deadline.
	// Short windows keep SendCommand responsive to the overall deadline
	// without busy-waiting on the port.
	readPollWindow = 5 * time.Millisecond

	// wakeByteInterval paces the null bytes of the wake burst
	wakeByteInterval = time.Millisecond

	// wakeSettleDelay lets the oscillator stabilize after the wake burst
	wakeSettleDelay = 15 * time.Millisecond

	minExchangeTimeout = 10 * time.Millisecond
)

// Transport implements the cr95hf.Transport interface using UART
type Transport struct {
	port      serial.Port
	portName  string
	timeout   time.Duration
	mu        sync.Mutex
	connected atomic.Bool
}

// New creates a new UART transport on the given serial port
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, cr95hf.NewTransportError(
			"open", portName, err, cr95hf.ErrorTypePermanent, false)
	}

	return newWithPort(portName, port), nil
}

// newWithPort wraps an already-open port. Tests inject virtual ports here.
func newWithPort(portName string, port serial.Port) *Transport {
	t := &Transport{
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
	}
	t.connected.Store(true)
	return t
}

// WakeUp sends the null-byte wake burst for the given pulse duration,
// waits for the oscillator to settle, then drains the garbage the chip
// emits while waking
func (t *Transport) WakeUp(pulse time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pulse <= 0 {
		pulse = 100 * time.Millisecond
	}

	null := []byte{0x00}
	deadline := time.Now().Add(pulse)
	for time.Now().Before(deadline) {
		for i := 0; i < frame.WakeBurstLen && time.Now().Before(deadline); i++ {
			if _, err := t.port.Write(null); err != nil {
				return cr95hf.NewTransportError(
					"wake", t.portName, err, cr95hf.ErrorTypeTransient, true)
			}
			time.Sleep(wakeByteInterval)
		}
	}

	time.Sleep(wakeSettleDelay)
	return t.drainInput("wake")
}

// Echo performs the bare echo self-test: a single 0x55 byte out, the
// identical byte expected back
func (t *Transport) Echo() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.drainInput("echo"); err != nil {
		return err
	}
	if err := t.writeFull("echo", []byte{frame.CmdEcho}); err != nil {
		return err
	}

	deadline := time.Now().Add(t.timeout)
	got, ok, err := t.readByte(deadline)
	if err != nil {
		return err
	}
	if !ok {
		return cr95hf.NewTimeoutError("echo", t.portName)
	}
	if got != frame.CmdEcho {
		return cr95hf.NewEchoMismatchError("echo", t.portName, got)
	}
	return nil
}

// SendCommand performs one framed exchange. The response is read in three
// phases against a single deadline: the result code, the length byte, then
// the payload.
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(args) > frame.MaxPayload {
		return nil, cr95hf.NewDataTooLargeError("sendCommand", t.portName)
	}

	if err := t.drainInput("sendCommand"); err != nil {
		return nil, err
	}
	if err := t.writeFull("sendCommand", frame.BuildCommand(cmd, args)); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.timeout)

	result, ok, err := t.readByte(deadline)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cr95hf.NewTimeoutError("waitResult", t.portName)
	}

	length, ok, err := t.readByte(deadline)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cr95hf.NewTimeoutError("waitLength", t.portName)
	}

	payload, err := t.readPayload(deadline, int(length))
	if err != nil {
		return nil, err
	}

	response := make([]byte, 0, 1+len(payload))
	response = append(response, result)
	return append(response, payload...), nil
}

// readByte reads a single byte before the deadline. ok is false when the
// deadline passed without data; the port itself reported no error.
func (t *Transport) readByte(deadline time.Time) (b byte, ok bool, err error) {
	buf := make([]byte, 1)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false, nil
		}

		window := readPollWindow
		if remaining < window {
			window = remaining
		}
		if err := t.port.SetReadTimeout(window); err != nil {
			return 0, false, cr95hf.NewTransportError(
				"setReadTimeout", t.portName, err, cr95hf.ErrorTypePermanent, false)
		}

		n, err := t.port.Read(buf)
		if err != nil {
			return 0, false, cr95hf.NewTransportError(
				"read", t.portName, err, cr95hf.ErrorTypeTransient, true)
		}
		if n > 0 {
			return buf[0], true, nil
		}
		// n == 0 with nil error is a serial read timeout; poll again
	}
}

// readPayload accumulates exactly want payload bytes before the deadline
func (t *Transport) readPayload(deadline time.Time, want int) ([]byte, error) {
	payload := make([]byte, 0, want)
	for len(payload) < want {
		b, ok, err := t.readByte(deadline)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, cr95hf.NewPayloadTimeoutError(
				"readPayload", t.portName, len(payload), want)
		}
		payload = append(payload, b)
	}
	return payload, nil
}

// writeFull writes all of data or returns a transport error
func (t *Transport) writeFull(op string, data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return cr95hf.NewTransportError(
			op, t.portName, err, cr95hf.ErrorTypeTransient, true)
	}
	if n != len(data) {
		return cr95hf.NewTransportWriteError(op, t.portName)
	}
	return nil
}

// drainInput discards stale bytes from the receive buffer. Slow USB-serial
// adapters occasionally fail the flush with EINTR, so retry with backoff.
func (t *Transport) drainInput(op string) error {
	var err error
	for _, backoff := range []time.Duration{0, 2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond} {
		time.Sleep(backoff)
		if err = t.port.ResetInputBuffer(); err == nil {
			return nil
		}
	}
	return cr95hf.NewTransportError(
		op, t.portName, err, cr95hf.ErrorTypeTransient, true)
}

// SetTimeout sets the response deadline for SendCommand and Echo
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timeout < minExchangeTimeout {
		timeout = minExchangeTimeout
	}
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	if !t.connected.CompareAndSwap(true, false) {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return cr95hf.NewTransportError(
			"close", t.portName, err, cr95hf.ErrorTypePermanent, false)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.connected.Load()
}

// Type returns the transport type
func (t *Transport) Type() cr95hf.TransportType {
	return cr95hf.TransportUART
}

// Timing reports the UART wire's timing profile
func (t *Transport) Timing() cr95hf.TransportTiming {
	return cr95hf.TransportTiming{
		MinExchangeTimeout: minExchangeTimeout,
		NeedsWakePulse:     true,
	}
}

// Ensure Transport implements the required interfaces
var (
	_ cr95hf.Transport               = (*Transport)(nil)
	_ cr95hf.TransportTimingProvider = (*Transport)(nil)
)
