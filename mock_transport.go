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
	"sync"
	"time"
)

// MockTransport is an in-memory Transport for tests. Responses are the
// post-framing [result, payload...] slices SendCommand returns.
//
// Responses can be sticky (SetResponse, one per command byte) or queued
// (QueueResponse, consumed in order before the sticky response). Queued
// responses are what multi-exchange sequences such as discovery use.
type MockTransport struct {
	responses  map[byte][]byte
	queues     map[byte][][]byte
	errors     map[byte]error
	callCounts map[byte]int
	sent       [][]byte
	echoErr    error
	wakeCalls  int
	delay      time.Duration
	timeout    time.Duration
	closed     bool
	mu         sync.Mutex
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses:  make(map[byte][]byte),
		queues:     make(map[byte][][]byte),
		errors:     make(map[byte]error),
		callCounts: make(map[byte]int),
		timeout:    100 * time.Millisecond,
	}
}

// SetResponse sets the sticky response for a command byte
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = response
}

// QueueResponse appends a one-shot response for a command byte. Queued
// responses are consumed before the sticky response.
func (m *MockTransport) QueueResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[cmd] = append(m.queues[cmd], response)
}

// SetError sets an error to return for a command byte
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

// SetEchoError makes Echo fail with the given error
func (m *MockTransport) SetEchoError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echoErr = err
}

// SetDelay adds an artificial delay before each SendCommand response
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// GetCallCount returns how many times a command byte was sent
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCounts[cmd]
}

// WakeCalls returns how many times WakeUp was invoked
func (m *MockTransport) WakeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakeCalls
}

// SentFrames returns the [cmd, payload...] content of every SendCommand call
func (m *MockTransport) SentFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	frames := make([][]byte, len(m.sent))
	copy(frames, m.sent)
	return frames
}

// WakeUp records the wake pulse; the mock chip is always awake
func (m *MockTransport) WakeUp(_ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportWrite
	}
	m.wakeCalls++
	return nil
}

// Echo succeeds unless an echo error was configured
func (m *MockTransport) Echo() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportRead
	}
	return m.echoErr
}

// SendCommand returns the configured response or error for cmd
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrTransportRead
	}

	m.callCounts[cmd]++
	frame := make([]byte, 0, 1+len(args))
	frame = append(frame, cmd)
	frame = append(frame, args...)
	m.sent = append(m.sent, frame)

	delay := m.delay
	err := m.errors[cmd]

	var response []byte
	if queue := m.queues[cmd]; len(queue) > 0 {
		response = queue[0]
		m.queues[cmd] = queue[1:]
	} else {
		response = m.responses[cmd]
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, NewTimeoutError("waitResult", "mock")
	}
	return append([]byte(nil), response...), nil
}

// SetTimeout records the timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Timeout returns the last timeout set on the transport
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected returns true until Close is called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns the mock transport type
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Timing keeps the wake pulse so bring-up tests exercise WakeUp
func (*MockTransport) Timing() TransportTiming {
	return TransportTiming{
		MinExchangeTimeout: time.Millisecond,
		NeedsWakePulse:     true,
	}
}

// Ensure MockTransport implements Transport
var _ Transport = (*MockTransport)(nil)
