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
	"time"

	"github.com/ZaparooProject/go-cr95hf"
)

// WriteToNextTag waits for the next detected tag and executes the write
// operation. It blocks until a tag is detected and the operation
// completes, times out, or is cancelled.
func (s *Scanner) WriteToNextTag(ctx context.Context, timeout time.Duration, operation func(cr95hf.Tag) error) error {
	if !s.running.Load() {
		return ErrScannerNotRunning
	}

	// One write at a time
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	if s.pendingWrite.Load() != nil {
		return ErrWriteAlreadyPending
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &WriteRequest{
		operation: operation,
		result:    make(chan error, 1),
		ctx:       writeCtx,
	}
	s.pendingWrite.Store(req)
	defer s.pendingWrite.Store(nil)

	s.mu.Lock()
	stopped := s.done
	s.mu.Unlock()

	select {
	case err := <-req.result:
		return err
	case <-writeCtx.Done():
		return writeCtx.Err()
	case <-stopped:
		return ErrScannerStopped
	}
}

// processPendingWrites handles the queued write operation when a tag is
// detected. Called from the monitor callbacks.
func (s *Scanner) processPendingWrites(detectedTag *cr95hf.DetectedTag) {
	req := s.pendingWrite.Load()
	if req == nil {
		return
	}

	select {
	case <-req.ctx.Done():
		s.sendWriteResult(req, req.ctx.Err())
		return
	default:
	}

	err := s.monitor.WriteToTag(detectedTag, req.operation)
	s.sendWriteResult(req, err)
}

// sendWriteResult delivers the outcome to the waiting WriteToNextTag call
// without blocking if that call already gave up
func (*Scanner) sendWriteResult(req *WriteRequest, err error) {
	select {
	case req.result <- err:
	default:
	}
}
