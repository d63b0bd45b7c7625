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

// Package spi provides an SPI transport for the CR95HF.
//
// Every SPI transaction starts with a control byte: 0x00 sends a command
// frame, 0x02 reads the response, 0x03 polls the status flags, and 0x01
// resets the chip. Responses use the same [result, length, payload] frame
// format as UART, prefixed by one dummy byte clocked out while the control
// byte goes in.
package spi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/internal/frame"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Control bytes for the start of each SPI transaction
	ctrlSend  = 0x00
	ctrlReset = 0x01
	ctrlRead  = 0x02
	ctrlPoll  = 0x03

	// flagDataReady is set in the polled status byte when a response
	// frame is waiting to be read
	flagDataReady = 0x08

	// maxClockFreq is the CR95HF SPI ceiling (2 MHz)
	maxClockFreq = 2 * physic.MegaHertz

	defaultTimeout = 50 * time.Millisecond

	pollInterval = time.Millisecond

	resetSettleDelay = 10 * time.Millisecond

	minExchangeTimeout = 5 * time.Millisecond
)

// Transport implements the cr95hf.Transport interface using SPI
type Transport struct {
	conn      spi.Conn
	port      spi.PortCloser
	portName  string
	timeout   time.Duration
	mu        sync.Mutex
	connected atomic.Bool
}

// New creates a new SPI transport on the given SPI port (for example
// "/dev/spidev0.0" or an empty string for the first available port)
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, cr95hf.NewTransportError(
			"hostInit", portName, err, cr95hf.ErrorTypePermanent, false)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, cr95hf.NewTransportError(
			"open", portName, err, cr95hf.ErrorTypePermanent, false)
	}

	conn, err := port.Connect(maxClockFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, cr95hf.NewTransportError(
			"connect", portName, err, cr95hf.ErrorTypePermanent, false)
	}

	t := &Transport{
		conn:     conn,
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
	}
	t.connected.Store(true)
	return t, nil
}

// WakeUp resets the chip over SPI and waits for it to come up. The SPI
// wire does not need the UART null-byte burst; clock activity on the bus
// wakes the chip after reset.
func (t *Transport) WakeUp(_ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.Tx([]byte{ctrlReset}, nil); err != nil {
		return cr95hf.NewTransportError(
			"reset", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}
	time.Sleep(resetSettleDelay)

	// Dummy clock activity completes the wake
	if err := t.conn.Tx([]byte{ctrlSend, 0x00}, nil); err != nil {
		return cr95hf.NewTransportError(
			"wake", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}
	time.Sleep(resetSettleDelay)
	return nil
}

// Echo performs the echo self-test over SPI
func (t *Transport) Echo() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.Tx([]byte{ctrlSend, frame.CmdEcho}, nil); err != nil {
		return cr95hf.NewTransportError(
			"echo", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.waitReady("echo", deadline); err != nil {
		return err
	}

	rx := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(rx)
	rx[0], rx[1] = 0, 0
	if err := t.conn.Tx([]byte{ctrlRead, 0x00}, rx); err != nil {
		return cr95hf.NewTransportError(
			"echo", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}
	if rx[1] != frame.CmdEcho {
		return cr95hf.NewEchoMismatchError("echo", t.portName, rx[1])
	}
	return nil
}

// SendCommand performs one framed exchange over SPI
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(args) > frame.MaxPayload {
		return nil, cr95hf.NewDataTooLargeError("sendCommand", t.portName)
	}

	tx := make([]byte, 0, 1+frame.HeaderLen+len(args))
	tx = append(tx, ctrlSend)
	tx = append(tx, frame.BuildCommand(cmd, args)...)
	if err := t.conn.Tx(tx, nil); err != nil {
		return nil, cr95hf.NewTransportError(
			"sendCommand", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.waitReady("waitResult", deadline); err != nil {
		return nil, err
	}

	return t.readResponse()
}

// waitReady polls the status flags until the data-ready bit is set
func (t *Transport) waitReady(op string, deadline time.Time) error {
	status := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(status)

	for time.Now().Before(deadline) {
		status[0], status[1] = 0, 0
		if err := t.conn.Tx([]byte{ctrlPoll, 0x00}, status); err != nil {
			return cr95hf.NewTransportError(
				op, t.portName, err, cr95hf.ErrorTypeTransient, true)
		}
		if status[1]&flagDataReady != 0 {
			return nil
		}
		time.Sleep(pollInterval)
	}

	return cr95hf.NewTimeoutError(op, t.portName)
}

// readResponse clocks out a full maximum-size response in one transaction
// and trims it to the frame's declared length. The whole frame must come
// out under one chip-select assertion, so the read is pessimistic.
func (t *Transport) readResponse() ([]byte, error) {
	tx := make([]byte, 1+frame.HeaderLen+frame.MaxPayload)
	tx[0] = ctrlRead
	rx := make([]byte, len(tx))

	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, cr95hf.NewTransportError(
			"readResponse", t.portName, err, cr95hf.ErrorTypeTransient, true)
	}

	result := rx[1]
	length := int(rx[2])
	if 3+length > len(rx) {
		return nil, cr95hf.NewInvalidResponseError("readResponse", t.portName)
	}

	response := make([]byte, 0, 1+length)
	response = append(response, result)
	return append(response, rx[3:3+length]...), nil
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

// Close closes the SPI port
func (t *Transport) Close() error {
	if !t.connected.CompareAndSwap(true, false) || t.port == nil {
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
func (*Transport) Type() cr95hf.TransportType {
	return cr95hf.TransportSPI
}

// Timing reports the SPI wire's timing profile. The chip is woken by bus
// activity, so the device layer skips the wake pulse.
func (t *Transport) Timing() cr95hf.TransportTiming {
	return cr95hf.TransportTiming{
		MinExchangeTimeout: minExchangeTimeout,
		NeedsWakePulse:     false,
	}
}

// Ensure Transport implements the required interfaces
var (
	_ cr95hf.Transport               = (*Transport)(nil)
	_ cr95hf.TransportTimingProvider = (*Transport)(nil)
)
