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

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithDeviceConfig replaces the whole device configuration
func WithDeviceConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if err := config.Validate(); err != nil {
			return err
		}
		d.config = config
		return nil
	}
}

// WithWakePulse sets the duration of the bring-up wake burst
func WithWakePulse(pulse time.Duration) Option {
	return func(d *Device) error {
		if pulse <= 0 {
			return ErrInvalidParameter
		}
		d.config.WakePulse = pulse
		return nil
	}
}

// WithBringUpTimeout sets the per-exchange timeout used during bring-up
func WithBringUpTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return ErrInvalidParameter
		}
		d.config.BringUpTimeout = timeout
		return nil
	}
}

// WithExchangeTimeout sets the per-exchange timeout used during discovery
func WithExchangeTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return ErrInvalidParameter
		}
		d.config.ExchangeTimeout = timeout
		return nil
	}
}

// WithTimeout is an alias for WithExchangeTimeout kept for callers that
// only care about a single knob
func WithTimeout(timeout time.Duration) Option {
	return WithExchangeTimeout(timeout)
}
