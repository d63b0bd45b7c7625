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

// Package uart detects CR95HF readers on serial ports
package uart

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-cr95hf/detection"
	internaltransport "github.com/ZaparooProject/go-cr95hf/internal/transport"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
)

// probeWakePulse is deliberately short: a real probe only needs enough
// null bytes to wake an attached chip, not the full power-on pulse
const probeWakePulse = 30 * time.Millisecond

// serialPort describes one enumerated serial port
type serialPort struct {
	Path         string
	Name         string
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
}

// detector implements the detection.Detector interface for serial ports
type detector struct{}

// New creates a new UART detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect enumerates serial ports and probes each candidate with the echo
// self-test
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := getSerialPorts(ctx)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if !shouldProbe(port, opts) {
			continue
		}

		if opts.Mode == detection.Passive {
			devices = append(devices, deviceInfo(port))
			continue
		}

		if probePort(ctx, port.Path, opts.ProbeTimeout) {
			devices = append(devices, deviceInfo(port))
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// shouldProbe applies the ignore list and blocklist to a candidate
func shouldProbe(port serialPort, opts *detection.Options) bool {
	if detection.IsPathIgnored(port.Path, opts.IgnorePaths) {
		return false
	}
	if opts.Mode == detection.Safe && port.VIDPID != "" &&
		detection.IsBlocked(port.VIDPID, opts.Blocklist) {
		return false
	}
	return true
}

// probePort opens the port and runs the wake-and-echo sequence. USB-serial
// adapters sometimes need a moment after open, so the probe retries.
func probePort(ctx context.Context, path string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = detection.DefaultOptions().ProbeTimeout
	}

	transport, err := uart.New(path)
	if err != nil {
		return false
	}
	defer func() { _ = transport.Close() }()

	if err := transport.SetTimeout(timeout); err != nil {
		return false
	}

	probe := func(_ context.Context) error {
		if err := transport.WakeUp(probeWakePulse); err != nil {
			return err
		}
		return transport.Echo()
	}

	return internaltransport.WithRetry(ctx, internaltransport.DefaultRetryConfig(), probe) == nil
}

// deviceInfo converts an enumerated port into a detection result
func deviceInfo(port serialPort) detection.DeviceInfo {
	metadata := make(map[string]string)
	if port.VIDPID != "" {
		// Platform enumerators emit bare "VID:PID" pairs, but run the
		// value through the descriptor parser so oddly formatted IDs
		// still come out canonical.
		if id := detection.ParseVIDPID(port.VIDPID); id != "" {
			metadata["vidpid"] = id
		} else {
			metadata["vidpid"] = port.VIDPID
		}
	}
	if port.Manufacturer != "" {
		metadata["manufacturer"] = port.Manufacturer
	}
	if port.Product != "" {
		metadata["product"] = port.Product
	}
	if port.SerialNumber != "" {
		metadata["serial_number"] = port.SerialNumber
	}

	name := port.Name
	if name == "" {
		name = port.Path
	}

	return detection.DeviceInfo{
		Transport: "uart",
		Path:      port.Path,
		Name:      name,
		Metadata:  metadata,
	}
}
