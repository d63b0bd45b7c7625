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

// readtag reads and optionally writes NDEF data on ISO14443-A tags
// through a CR95HF reader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/detection"
	// Import detectors to register them
	_ "github.com/ZaparooProject/go-cr95hf/detection/uart"
	"github.com/ZaparooProject/go-cr95hf/polling"
	"github.com/ZaparooProject/go-cr95hf/transport/spi"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
)

type config struct {
	devicePath   *string
	timeout      *time.Duration
	writeText    *string
	debug        *bool
	pollInterval *time.Duration
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). Leave empty for auto-detection."),
		timeout:   flag.Duration("timeout", 30*time.Second, "Timeout for tag detection"),
		writeText: flag.String("write", "", "Text to write to the tag (if not specified, will only read)"),
		debug:     flag.Bool("debug", false, "Enable debug output"),
		pollInterval: flag.Duration("poll-interval", 200*time.Millisecond,
			"Polling interval for tag detection"),
	}
	flag.Parse()

	if *cfg.debug {
		cr95hf.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport creates a transport from a device path
func newTransport(path string) (cr95hf.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	if strings.Contains(strings.ToLower(path), "spi") {
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	}

	transport, err := uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

// newTransportFromDevice creates a transport from a detected device
func newTransportFromDevice(device detection.DeviceInfo) (cr95hf.Transport, error) {
	switch strings.ToLower(device.Transport) {
	case "uart":
		transport, err := uart.New(device.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	case "spi":
		transport, err := spi.New(device.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", device.Transport)
	}
}

func buildConnectOptions(cfg *config) []cr95hf.ConnectOption {
	var connectOpts []cr95hf.ConnectOption

	if *cfg.devicePath == "" {
		connectOpts = append(connectOpts,
			cr95hf.WithAutoDetection(),
			cr95hf.WithTransportFromDeviceFactory(newTransportFromDevice))
		_, _ = fmt.Println("Auto-detecting CR95HF devices...")
	} else {
		connectOpts = append(connectOpts, cr95hf.WithTransportFactory(newTransport))
		_, _ = fmt.Printf("Opening device: %s\n", *cfg.devicePath)
	}

	connectOpts = append(connectOpts, cr95hf.WithConnectTimeout(*cfg.timeout))
	return connectOpts
}

func connectToDevice(cfg *config) (*cr95hf.Device, error) {
	device, err := cr95hf.ConnectDevice(*cfg.devicePath, buildConnectOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CR95HF device: %w", err)
	}

	_, _ = fmt.Printf("Reader: %s\n", device.DeviceName())
	return device, nil
}

func runScanner(ctx context.Context, device *cr95hf.Device, cfg *config) error {
	scanner, err := polling.NewScanner(device, &polling.ScanConfig{
		PollInterval:       *cfg.pollInterval,
		CardRemovalTimeout: 2 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	scanner.OnTagDetected = func(detectedTag *cr95hf.DetectedTag) error {
		return handleTagReading(ctx, device, detectedTag)
	}
	scanner.OnTagRemoved = func() {
		_, _ = fmt.Println("Tag removed - ready for next tag...")
	}

	if err := scanner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scanner: %w", err)
	}
	defer func() { _ = scanner.Stop() }()

	if *cfg.writeText != "" {
		return handleWriteMode(ctx, scanner, *cfg.timeout, *cfg.writeText)
	}

	<-ctx.Done()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		_, _ = fmt.Println("Session completed")
	}
	return nil
}

func handleWriteMode(ctx context.Context, scanner *polling.Scanner, timeout time.Duration, text string) error {
	_, _ = fmt.Println("Waiting for tag to write...")

	err := scanner.WriteToNextTag(ctx, timeout, func(tag cr95hf.Tag) error {
		if err := tag.WriteText(ctx, text); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
		_, _ = fmt.Println("Write successful!")
		_, _ = fmt.Println(tag.Summary())
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_, _ = fmt.Printf("timeout: no tag detected within %s\n", timeout)
			return nil
		}
		return fmt.Errorf("write operation failed: %w", err)
	}

	return nil
}

func handleTagReading(ctx context.Context, device *cr95hf.Device, detectedTag *cr95hf.DetectedTag) error {
	_, _ = fmt.Printf("Tag: UID=%s SAK=0x%02X ATQA=%02X%02X type=%s (%s)\n",
		detectedTag.UID, detectedTag.SAK,
		detectedTag.ATQA[0], detectedTag.ATQA[1],
		detectedTag.Type, detectedTag.CardType())

	tag, err := device.CreateTag(detectedTag)
	if err != nil {
		if errors.Is(err, cr95hf.ErrNotSupported) {
			// Nothing more to show for tags without a block-level handler
			return nil
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}

	_, _ = fmt.Println(tag.Summary())

	text, err := tag.ReadText(ctx)
	if err != nil {
		if errors.Is(err, cr95hf.ErrNoNDEF) {
			_, _ = fmt.Println("No NDEF data on tag")
			return nil
		}
		return fmt.Errorf("failed to read NDEF text: %w", err)
	}
	_, _ = fmt.Printf("NDEF text: %q\n", text)
	return nil
}

func main() {
	cfg := parseFlags()

	device, err := connectToDevice(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to connect to device: %v\n", err)
		return
	}
	defer func() { _ = device.Close() }()

	_, _ = fmt.Printf("Waiting for tag (timeout: %s, poll interval: %s)...\n",
		*cfg.timeout, *cfg.pollInterval)

	ctx, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
	defer cancel()

	if err := runScanner(ctx, device, cfg); err != nil {
		_, _ = fmt.Printf("%v\n", err)
	}
}
