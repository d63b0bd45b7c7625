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

package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-cr95hf"
)

// Monitor handles continuous card monitoring with a state machine
type Monitor struct {
	device         *cr95hf.Device
	config         *Config
	OnCardDetected func(tag *cr95hf.DetectedTag) error
	OnCardRemoved  func()
	OnCardChanged  func(tag *cr95hf.DetectedTag) error
	state          CardState
}

// NewMonitor creates a new card monitor
func NewMonitor(device *cr95hf.Device, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{
		device: device,
		config: config,
		state:  CardState{},
	}
}

// Start begins continuous monitoring for cards. It blocks until the
// context ends.
func (m *Monitor) Start(ctx context.Context) error {
	return m.continuousPolling(ctx)
}

// GetState returns the current card state
func (m *Monitor) GetState() CardState {
	return m.state
}

// GetDevice returns the underlying CR95HF device
func (m *Monitor) GetDevice() *cr95hf.Device {
	return m.device
}

// Close cleans up the monitor resources
func (m *Monitor) Close() error {
	if m.state.RemovalTimer != nil {
		m.state.RemovalTimer.Stop()
		m.state.RemovalTimer = nil
	}
	if err := m.device.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}

// continuousPolling runs the discovery loop
func (m *Monitor) continuousPolling(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		detectedTag, err := m.performSinglePoll(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoTagInPoll) {
				m.handlePollingError(err)
			}
			// Absence is the common case; fall through to the pause
		} else {
			m.processPollingResults(detectedTag)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.PollInterval):
		}
	}
}

// performSinglePoll runs one discovery attempt
func (m *Monitor) performSinglePoll(ctx context.Context) (*cr95hf.DetectedTag, error) {
	pollCtx, cancel := context.WithTimeout(ctx, m.config.PollInterval)
	defer cancel()

	tag, err := m.device.DetectTagContext(pollCtx)
	if err != nil {
		if errors.Is(err, cr95hf.ErrNoTagDetected) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNoTagInPoll
		}
		return nil, fmt.Errorf("tag detection failed: %w", err)
	}

	return tag, nil
}

// handlePollingError handles errors from polling operations
func (m *Monitor) handlePollingError(err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return
	}

	// Serious device errors, like a disconnected reader, force an
	// immediate removal event
	m.handleCardRemoval()
}

// handleCardRemoval handles card removal state changes
func (m *Monitor) handleCardRemoval() {
	if m.state.Present {
		if m.OnCardRemoved != nil {
			m.OnCardRemoved()
		}
		m.state.TransitionToIdle()
	}
}

// processPollingResults processes the detected tag
func (m *Monitor) processPollingResults(detectedTag *cr95hf.DetectedTag) {
	if detectedTag == nil {
		return
	}

	cardChanged := m.updateCardState(detectedTag)

	if m.state.DetectionState != StateReading {
		m.state.TransitionToDetected(m.config.CardRemovalTimeout, func() {
			m.handleCardRemoval()
		})
	}

	if cardChanged || m.state.TestedUID != detectedTag.UID {
		m.markCardTested(detectedTag)
	}
}

// updateCardState updates the card state and returns whether the card changed
func (m *Monitor) updateCardState(detectedTag *cr95hf.DetectedTag) bool {
	currentUID := detectedTag.UID
	cardType := string(detectedTag.Type)

	if !m.state.Present {
		if m.OnCardDetected != nil {
			_ = m.OnCardDetected(detectedTag)
		}
		m.state.Present = true
		m.state.LastUID = currentUID
		m.state.LastType = cardType
		m.state.TestedUID = ""
		return true
	}

	if m.state.LastUID != currentUID {
		if m.OnCardChanged != nil {
			_ = m.OnCardChanged(detectedTag)
		}
		m.state.LastUID = currentUID
		m.state.LastType = cardType
		m.state.TestedUID = ""
		return true
	}

	return false
}

// markCardTested records the card as handled so callbacks do not repeat
// for every poll that sees the same UID
func (m *Monitor) markCardTested(detectedTag *cr95hf.DetectedTag) {
	m.state.TransitionToReading()
	m.state.TestedUID = detectedTag.UID
	m.state.TransitionToPostReadGrace(m.config.CardRemovalTimeout, func() {
		m.handleCardRemoval()
	})
}

// WriteToTag runs a tag operation against a detected tag, holding the
// state machine in reading so the removal timer cannot fire mid-write
func (m *Monitor) WriteToTag(detectedTag *cr95hf.DetectedTag, operation func(cr95hf.Tag) error) error {
	if detectedTag == nil {
		return cr95hf.ErrNoTagDetected
	}
	if operation == nil {
		return errors.New("operation cannot be nil")
	}

	tag, err := m.device.CreateTag(detectedTag)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	m.state.TransitionToReading()
	opErr := operation(tag)
	m.state.TransitionToPostReadGrace(m.config.CardRemovalTimeout, func() {
		m.handleCardRemoval()
	})

	return opErr
}
