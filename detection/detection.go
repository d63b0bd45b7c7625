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

// Package detection finds connected CR95HF readers.
//
// Transport-specific detectors register themselves on import:
//
//	import _ "github.com/ZaparooProject/go-cr95hf/detection/uart"
//
// DetectAll then enumerates candidate devices across all registered
// detectors, optionally probing each one with the echo self-test.
package detection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Detection errors
var (
	// ErrNoDevicesFound indicates no candidate devices were found
	ErrNoDevicesFound = errors.New("no devices found")
	// ErrUnsupportedPlatform indicates the detector cannot run on this OS
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrDetectionTimeout indicates detection was cut short by its deadline
	ErrDetectionTimeout = errors.New("detection timeout")
)

// Mode controls how aggressively detection probes candidate devices
type Mode int

const (
	// Passive enumerates devices without opening them
	Passive Mode = iota
	// Safe opens candidates and runs the echo self-test, skipping
	// blocklisted devices
	Safe
	// Full probes every candidate, including blocklisted ones
	Full
)

// DeviceInfo describes a detected or candidate CR95HF device
type DeviceInfo struct {
	// Metadata holds detector-specific extras (VID:PID, USB strings)
	Metadata map[string]string
	// Transport is the detector that found the device ("uart")
	Transport string
	// Path is the OS path to open ("/dev/ttyUSB0", "COM3")
	Path string
	// Name is a human-readable device name
	Name string
}

// Options configures a detection run
type Options struct {
	// IgnorePaths lists device paths to skip entirely
	IgnorePaths []string
	// Blocklist lists VID:PID pairs not to probe in Safe mode
	Blocklist []string
	// Mode selects the probe aggressiveness
	Mode Mode
	// Timeout bounds the whole detection run
	Timeout time.Duration
	// ProbeTimeout bounds each individual device probe
	ProbeTimeout time.Duration
}

// DefaultOptions returns the recommended detection options
func DefaultOptions() Options {
	return Options{
		Mode:         Safe,
		Timeout:      5 * time.Second,
		ProbeTimeout: 500 * time.Millisecond,
		Blocklist:    DefaultBlocklist(),
	}
}

// Detector finds CR95HF devices on one transport kind
type Detector interface {
	// Transport returns the transport name this detector covers
	Transport() string
	// Detect searches for devices, honoring the options and context
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   []Detector
)

// RegisterDetector adds a detector to the global registry. Detector
// packages call this from init.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// Detectors returns a snapshot of the registered detectors
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]Detector(nil), registry...)
}

// DetectAll runs every registered detector and merges the results.
// Detectors that cannot run on this platform or find nothing are
// skipped silently; an empty result with a nil error means no devices.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return DetectAllContext(ctx, opts)
}

// DetectAllContext is DetectAll with caller-controlled cancellation
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	var firstErr error

	for _, detector := range Detectors() {
		select {
		case <-ctx.Done():
			return devices, ErrDetectionTimeout
		default:
		}

		found, err := detector.Detect(ctx, opts)
		switch {
		case err == nil:
			devices = append(devices, found...)
		case errors.Is(err, ErrUnsupportedPlatform),
			errors.Is(err, ErrNoDevicesFound):
			// Nothing on this transport
		default:
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(devices) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return devices, nil
}
