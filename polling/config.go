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

// Package polling provides continuous tag monitoring on top of a CR95HF
// device: a Monitor with presence/removal state tracking, and a Scanner
// that adds coordinated write operations.
package polling

import "time"

// Config holds configuration for the Monitor
type Config struct {
	// PollInterval is the delay between discovery attempts
	PollInterval time.Duration
	// CardRemovalTimeout is how long a card may go unseen before it is
	// considered removed
	CardRemovalTimeout time.Duration
}

// DefaultConfig returns sensible defaults for continuous monitoring
func DefaultConfig() *Config {
	return &Config{
		PollInterval:       200 * time.Millisecond,
		CardRemovalTimeout: 2 * time.Second,
	}
}
