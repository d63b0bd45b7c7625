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

	"github.com/ZaparooProject/go-cr95hf"
)

// startScanning builds the underlying Monitor, routes its callbacks into
// the Scanner's, and blocks until the context ends
func (s *Scanner) startScanning(ctx context.Context) error {
	s.monitor = NewMonitor(s.device, &Config{
		PollInterval:       s.config.PollInterval,
		CardRemovalTimeout: s.config.CardRemovalTimeout,
	})
	defer func() {
		if s.monitor != nil {
			_ = s.monitor.Close()
		}
	}()

	s.monitor.OnCardDetected = func(tag *cr95hf.DetectedTag) error {
		return s.writeThenNotify(tag, s.OnTagDetected)
	}
	s.monitor.OnCardChanged = func(tag *cr95hf.DetectedTag) error {
		return s.writeThenNotify(tag, s.OnTagChanged)
	}
	s.monitor.OnCardRemoved = func() {
		if s.OnTagRemoved != nil {
			s.OnTagRemoved()
		}
	}

	return s.monitor.Start(ctx)
}

// writeThenNotify applies any pending write before invoking the user
// callback, so the callback observes the tag's final state
func (s *Scanner) writeThenNotify(tag *cr95hf.DetectedTag, callback func(*cr95hf.DetectedTag) error) error {
	s.processPendingWrites(tag)
	if callback != nil {
		return callback(tag)
	}
	return nil
}
