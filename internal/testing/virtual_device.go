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

package testing

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/ZaparooProject/go-cr95hf/internal/frame"
	"go.bug.st/serial"
)

var errPortClosed = errors.New("virtual port closed")

// VirtualCR95HF is a wire-level simulator of the chip's UART surface.
// It implements go.bug.st/serial.Port so the UART transport can run its
// real framing code against it: wake detection, echo, identification,
// protocol selection, and ISO14443-A exchanges against an attached
// VirtualTag.
//
// ChunkSize splits responses across reads to exercise the three-phase
// receive path; the error-injection knobs starve specific waits.
type VirtualCR95HF struct {
	Tag *VirtualTag

	// ChunkSize caps bytes returned per Read when > 0
	ChunkSize int
	// ResponseDelay postpones response availability after each command
	ResponseDelay time.Duration
	// EchoByte overrides the echo reply byte when non-zero
	EchoByte byte
	// DropEcho suppresses the echo reply entirely
	DropEcho bool
	// TruncateAfter drops response bytes past this count when > 0,
	// starving the payload accumulation wait
	TruncateAfter int
	// SuppressLength drops everything after the result code, starving
	// the length-byte wait
	SuppressLength bool

	rx          bytes.Buffer // chip -> host
	pending     []byte       // host -> chip, incremental frame assembly
	awake       bool
	protocol    byte
	readTimeout time.Duration
	readyAt     time.Time
	closed      bool
	mu          sync.Mutex
}

// NewVirtualCR95HF creates a powered-down virtual chip with no tag in field
func NewVirtualCR95HF() *VirtualCR95HF {
	return &VirtualCR95HF{readTimeout: 50 * time.Millisecond}
}

// PlaceTag puts a tag into the simulated RF field
func (v *VirtualCR95HF) PlaceTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Tag = tag
}

// RemoveTag clears the simulated RF field
func (v *VirtualCR95HF) RemoveTag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Tag = nil
}

// Protocol returns the last protocol code selected by the host
func (v *VirtualCR95HF) Protocol() byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.protocol
}

// Awake reports whether the host has completed the wake burst
func (v *VirtualCR95HF) Awake() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.awake
}

// Write receives host bytes and feeds the command parser
func (v *VirtualCR95HF) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, errPortClosed
	}

	for _, b := range p {
		v.consume(b)
	}
	return len(p), nil
}

// consume feeds one host byte into the chip state machine
func (v *VirtualCR95HF) consume(b byte) {
	if !v.awake {
		// Null bytes are the wake burst; anything else is discarded
		// until the chip is awake
		if b == 0x00 {
			v.awake = true
		}
		return
	}

	v.pending = append(v.pending, b)
	v.processPending()
}

// processPending parses complete commands out of the pending buffer
func (v *VirtualCR95HF) processPending() {
	for len(v.pending) > 0 {
		// Wake-burst nulls that arrive after wake are padding
		if v.pending[0] == 0x00 {
			v.pending = v.pending[1:]
			continue
		}

		// Echo is a bare byte, not a framed command
		if v.pending[0] == frame.CmdEcho {
			v.pending = v.pending[1:]
			v.handleEcho()
			continue
		}

		if len(v.pending) < frame.HeaderLen {
			return
		}
		length := int(v.pending[1])
		if len(v.pending) < frame.HeaderLen+length {
			return
		}

		cmd := v.pending[0]
		payload := append([]byte(nil), v.pending[2:2+length]...)
		v.pending = v.pending[frame.HeaderLen+length:]
		v.dispatch(cmd, payload)
	}
}

func (v *VirtualCR95HF) handleEcho() {
	if v.DropEcho {
		return
	}
	echo := byte(frame.CmdEcho)
	if v.EchoByte != 0 {
		echo = v.EchoByte
	}
	v.rx.WriteByte(echo)
	v.scheduleReady()
}

// dispatch runs one framed command and enqueues its response
func (v *VirtualCR95HF) dispatch(cmd byte, payload []byte) {
	switch cmd {
	case frame.CmdIDN:
		v.respond(frame.RspSuccess, idnPayload())
	case frame.CmdProtocolSelect:
		if len(payload) < 1 {
			v.respond(frame.RspRFTimeout, nil)
			return
		}
		v.protocol = payload[0]
		v.respond(frame.RspSuccess, nil)
	case frame.CmdSendRecv:
		v.dispatchRF(payload)
	default:
		v.respond(frame.RspRFTimeout, nil)
	}
}

// dispatchRF answers an RF exchange against the attached tag
func (v *VirtualCR95HF) dispatchRF(payload []byte) {
	if v.protocol != frame.ProtoISO14443A || len(payload) < 2 {
		v.respond(frame.RspRFTimeout, nil)
		return
	}

	rf := payload[:len(payload)-1]
	tag := v.Tag

	if tag == nil || !tag.Present {
		v.respond(frame.RspRFTimeout, nil)
		return
	}

	switch {
	case len(rf) == 1 && rf[0] == frame.WUPA:
		v.respond(frame.RspData, []byte{tag.ATQA[0], tag.ATQA[1]})
	case len(rf) == 1 && rf[0] == frame.REQA:
		if tag.Halted {
			v.respond(frame.RspRFTimeout, nil)
			return
		}
		v.respond(frame.RspData, []byte{tag.ATQA[0], tag.ATQA[1]})
	case len(rf) == 2 && rf[1] == frame.NVBAnti:
		v.respondAnticollision(tag, rf[0])
	case len(rf) == 7 && rf[1] == frame.NVBSelect:
		v.respondSelect(tag, rf[0], rf[2:])
	case len(rf) == 2 && rf[0] == 0x30:
		v.respond(frame.RspData, tag.readPages(rf[1]))
	case len(rf) == 6 && rf[0] == 0xA2:
		if tag.writePage(rf[1], rf[2:]) {
			v.respond(frame.RspData, []byte{0x0A})
		} else {
			v.respond(frame.RspRFTimeout, nil)
		}
	default:
		v.respond(frame.RspRFTimeout, nil)
	}
}

func (v *VirtualCR95HF) respondAnticollision(tag *VirtualTag, sel byte) {
	levels := tag.cascadeLevels()
	idx := levelIndex(sel)
	if idx < 0 || idx >= len(levels) {
		v.respond(frame.RspRFTimeout, nil)
		return
	}
	v.respond(frame.RspData, levels[idx])
}

func (v *VirtualCR95HF) respondSelect(tag *VirtualTag, sel byte, block []byte) {
	levels := tag.cascadeLevels()
	idx := levelIndex(sel)
	if idx < 0 || idx >= len(levels) || !bytes.Equal(block, levels[idx]) {
		v.respond(frame.RspRFTimeout, nil)
		return
	}
	v.respond(frame.RspData, []byte{tag.sakFor(idx)})
}

func levelIndex(sel byte) int {
	switch sel {
	case frame.SelCL1:
		return 0
	case frame.SelCL2:
		return 1
	default:
		return -1
	}
}

// respond enqueues a [result, length, payload] response frame, applying
// the configured truncation knobs
func (v *VirtualCR95HF) respond(result byte, payload []byte) {
	out := make([]byte, 0, frame.HeaderLen+len(payload))
	out = append(out, result, byte(len(payload)))
	out = append(out, payload...)

	if v.SuppressLength {
		out = out[:1]
	} else if v.TruncateAfter > 0 && len(out) > v.TruncateAfter {
		out = out[:v.TruncateAfter]
	}

	v.rx.Write(out)
	v.scheduleReady()
}

func (v *VirtualCR95HF) scheduleReady() {
	if v.ResponseDelay > 0 {
		v.readyAt = time.Now().Add(v.ResponseDelay)
	}
}

// Read delivers chip bytes to the host, honoring the read timeout, the
// response delay, and the chunk size
func (v *VirtualCR95HF) Read(p []byte) (int, error) {
	deadline := time.Now().Add(v.currentReadTimeout())
	for {
		v.mu.Lock()
		ready := v.rx.Len() > 0 && time.Now().After(v.readyAt)
		if ready {
			n := v.rx.Len()
			if v.ChunkSize > 0 && n > v.ChunkSize {
				n = v.ChunkSize
			}
			if n > len(p) {
				n = len(p)
			}
			copied, _ := v.rx.Read(p[:n])
			v.mu.Unlock()
			return copied, nil
		}
		v.mu.Unlock()

		if time.Now().After(deadline) {
			return 0, nil // serial read timeout semantics
		}
		time.Sleep(time.Millisecond)
	}
}

func (v *VirtualCR95HF) currentReadTimeout() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.readTimeout
}

// SetReadTimeout implements serial.Port
func (v *VirtualCR95HF) SetReadTimeout(t time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readTimeout = t
	return nil
}

// ResetInputBuffer drops undelivered chip output, like draining stale input
func (v *VirtualCR95HF) ResetInputBuffer() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rx.Reset()
	return nil
}

// ResetOutputBuffer implements serial.Port
func (v *VirtualCR95HF) ResetOutputBuffer() error {
	return nil
}

// SetMode implements serial.Port
func (*VirtualCR95HF) SetMode(_ *serial.Mode) error {
	return nil
}

// Drain implements serial.Port
func (*VirtualCR95HF) Drain() error {
	return nil
}

// SetDTR implements serial.Port
func (*VirtualCR95HF) SetDTR(_ bool) error {
	return nil
}

// SetRTS implements serial.Port
func (*VirtualCR95HF) SetRTS(_ bool) error {
	return nil
}

// GetModemStatusBits implements serial.Port
func (*VirtualCR95HF) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

// Break implements serial.Port
func (*VirtualCR95HF) Break(_ time.Duration) error {
	return nil
}

// Close implements serial.Port
func (v *VirtualCR95HF) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// idnPayload is the identification response body: name, null, ROM CRC
func idnPayload() []byte {
	payload := make([]byte, 0, 15)
	payload = append(payload, []byte(TestDeviceName)...)
	for len(payload) < 13 {
		payload = append(payload, 0x00)
	}
	return append(payload, 0x2A, 0xCE)
}

// Ensure VirtualCR95HF implements serial.Port
var _ serial.Port = (*VirtualCR95HF)(nil)
