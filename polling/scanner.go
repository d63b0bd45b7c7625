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
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-cr95hf"
)

// Scanner provides a high-level interface for continuous tag scanning
// with coordinated write operations. It wraps the lower-level Monitor to
// provide thread-safe, user-friendly scanning functionality.
type Scanner struct {
	device        *cr95hf.Device
	config        *ScanConfig
	monitor       *Monitor
	pendingWrite  atomic.Pointer[WriteRequest]
	cancel        context.CancelFunc
	done          chan struct{}
	OnTagDetected func(*cr95hf.DetectedTag) error
	OnTagRemoved  func()
	OnTagChanged  func(*cr95hf.DetectedTag) error
	writeMutex    sync.Mutex
	mu            sync.Mutex
	running       atomic.Bool
}

// ScanConfig holds configuration options for the Scanner
type ScanConfig struct {
	PollInterval       time.Duration
	CardRemovalTimeout time.Duration
}

// WriteRequest represents a pending write operation
type WriteRequest struct {
	operation func(cr95hf.Tag) error
	result    chan error
	ctx       context.Context
}

// Scanner-specific errors
var (
	ErrWriteAlreadyPending = errors.New("write operation already pending")
	ErrScannerNotRunning   = errors.New("scanner is not running")
	ErrScannerStopped      = errors.New("scanner was stopped")
)

// NewScanner creates a new scanner instance with the given device and
// configuration
func NewScanner(device *cr95hf.Device, config *ScanConfig) (*Scanner, error) {
	if device == nil {
		return nil, errors.New("device cannot be nil")
	}
	if config == nil {
		config = DefaultScanConfig()
	}

	return &Scanner{
		device: device,
		config: config,
	}, nil
}

// DefaultScanConfig returns sensible default configuration values
func DefaultScanConfig() *ScanConfig {
	return &ScanConfig{
		PollInterval:       DefaultConfig().PollInterval,
		CardRemovalTimeout: DefaultConfig().CardRemovalTimeout,
	}
}

// Start begins continuous scanning (non-blocking). Returns an error if
// the scanner is already running.
func (s *Scanner) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scanner is already running")
	}

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer s.running.Store(false)

		if err := s.startScanning(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
			cr95hf.Debugf("scanner stopped with error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the scanner, blocking until the scan goroutine
// has exited. Stopping a scanner that never ran is a no-op.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// IsRunning returns whether the scanner is currently active
func (s *Scanner) IsRunning() bool {
	return s.running.Load()
}

// HasPendingWrite returns true if a write operation is waiting
func (s *Scanner) HasPendingWrite() bool {
	return s.pendingWrite.Load() != nil
}
