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
	"time"
)

// TransportTiming describes timing characteristics a transport needs from
// the device layer. The UART wire needs the full wake pulse after power-on;
// SPI wakes with a short IRQ_IN pulse handled inside the transport.
type TransportTiming struct {
	// MinExchangeTimeout is the floor for per-exchange response deadlines
	MinExchangeTimeout time.Duration
	// NeedsWakePulse reports whether Init must run the null-byte wake burst
	NeedsWakePulse bool
}

// TransportTimingProvider is implemented by transports that want to override
// the default timing profile for their wire.
type TransportTimingProvider interface {
	Timing() TransportTiming
}

// defaultTiming is assumed for transports that do not provide their own
var defaultTiming = TransportTiming{
	MinExchangeTimeout: 10 * time.Millisecond,
	NeedsWakePulse:     true,
}

// timingFor returns the timing profile for a transport
func timingFor(t Transport) TransportTiming {
	if provider, ok := t.(TransportTimingProvider); ok {
		return provider.Timing()
	}
	return defaultTiming
}
