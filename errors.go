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
)

// Sentinel errors returned by the library.
//
// ErrNoTagDetected is the only error a polling loop should expect to see
// frequently: it represents protocol-level absence, not a device fault.
var (
	// ErrNoTagDetected indicates no tag answered a discovery attempt.
	ErrNoTagDetected = errors.New("no tag detected")
	// ErrDeviceNotInitialized indicates a device method was called before Init.
	ErrDeviceNotInitialized = errors.New("device not initialized")
	// ErrTransportTimeout indicates a blocking wait exceeded its deadline.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrTransportRead indicates a read from the underlying channel failed.
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite indicates a write to the underlying channel failed.
	ErrTransportWrite = errors.New("transport write failed")
	// ErrCommunicationFailed indicates a malformed or garbled exchange.
	ErrCommunicationFailed = errors.New("communication failed")
	// ErrEchoMismatch indicates the echo self-test returned the wrong byte.
	ErrEchoMismatch = errors.New("echo mismatch")
	// ErrInvalidResponse indicates a response frame that violates the wire format.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrDataTooLarge indicates a payload exceeding the one-byte length field.
	ErrDataTooLarge = errors.New("data too large for frame")
	// ErrInvalidParameter indicates an invalid argument from the caller.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDeviceNotFound indicates no CR95HF was found during detection.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrNotSupported indicates an operation the tag or transport cannot do.
	ErrNotSupported = errors.New("operation not supported")
)

// ErrorType classifies transport errors for retry decisions
type ErrorType int

const (
	// ErrorTypeTransient indicates a temporary error that may succeed on retry
	ErrorTypeTransient ErrorType = iota
	// ErrorTypeTimeout indicates a deadline was exceeded
	ErrorTypeTimeout
	// ErrorTypePermanent indicates an error that will not resolve by retrying
	ErrorTypePermanent
)

// TransportError wraps a transport-level fault with its operation context.
// During bring-up these are fatal; during discovery the device downgrades
// them to ErrNoTagDetected.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("cr95hf %s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("cr95hf %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with explicit classification
func NewTransportError(op, port string, err error, errType ErrorType, retryable bool) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err, Type: errType, Retryable: retryable}
}

// NewTimeoutError creates a timeout error for the given wait phase
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       ErrTransportTimeout,
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// NewPayloadTimeoutError creates a timeout error for a partially received
// payload, reporting how many bytes arrived before the deadline
func NewPayloadTimeoutError(op, port string, got, want int) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       fmt.Errorf("%w: got %d of %d payload bytes", ErrTransportTimeout, got, want),
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// NewTransportWriteError creates an error for a short or failed write
func NewTransportWriteError(op, port string) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       ErrTransportWrite,
		Type:      ErrorTypeTransient,
		Retryable: true,
	}
}

// NewEchoMismatchError creates an error for an unexpected echo byte
func NewEchoMismatchError(op, port string, got byte) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       fmt.Errorf("%w: expected 0x55, got 0x%02X", ErrEchoMismatch, got),
		Type:      ErrorTypePermanent,
		Retryable: false,
	}
}

// NewInvalidResponseError creates an error for a malformed response frame
func NewInvalidResponseError(op, port string) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       ErrInvalidResponse,
		Type:      ErrorTypePermanent,
		Retryable: false,
	}
}

// NewDataTooLargeError creates an error for an oversized command payload
func NewDataTooLargeError(op, port string) *TransportError {
	return &TransportError{
		Op: op, Port: port,
		Err:       ErrDataTooLarge,
		Type:      ErrorTypePermanent,
		Retryable: false,
	}
}

// IsRetryable reports whether the operation that produced err may be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed):
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// InitPhase identifies the bring-up state that failed
type InitPhase string

const (
	// InitPhaseWake is the wake-pulse and oscillator settle phase
	InitPhaseWake InitPhase = "wake"
	// InitPhaseEcho is the echo self-test phase
	InitPhaseEcho InitPhase = "echo"
	// InitPhaseIdentify is the identification query phase
	InitPhaseIdentify InitPhase = "identify"
	// InitPhaseProtocol is the ISO14443-A protocol selection phase
	InitPhaseProtocol InitPhase = "protocol select"
)

// InitError is a fatal bring-up fault naming the phase that failed.
// A device that returns an InitError from Init must not be used.
type InitError struct {
	Err   error
	Phase InitPhase
}

func (e *InitError) Error() string {
	return fmt.Sprintf("cr95hf initialization failed at %s: %v", e.Phase, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
