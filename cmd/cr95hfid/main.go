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

// cr95hfid lists CR95HF readers attached to this machine, or identifies
// the one on a given serial port.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/detection"
	_ "github.com/ZaparooProject/go-cr95hf/detection/uart"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
)

func main() {
	devicePath := flag.String("device", "", "Serial device path; empty scans all ports")
	timeout := flag.Duration("timeout", 5*time.Second, "Detection timeout")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	if *debug {
		cr95hf.SetDebugEnabled(true)
	}

	if *devicePath != "" {
		if err := identify(*devicePath); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := scan(*timeout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// identify brings up the reader on one port and prints its identity
func identify(path string) error {
	transport, err := uart.New(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	device, err := cr95hf.New(transport)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = device.Close() }()

	if err := device.Init(); err != nil {
		return fmt.Errorf("no CR95HF on %s: %w", path, err)
	}

	_, _ = fmt.Printf("%s: %s\n", path, device.DeviceName())
	return nil
}

// scan probes all serial ports for CR95HF readers
func scan(timeout time.Duration) error {
	opts := detection.DefaultOptions()
	opts.Timeout = timeout

	devices, err := detection.DetectAll(&opts)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	if len(devices) == 0 {
		_, _ = fmt.Println("No CR95HF readers found")
		return nil
	}

	for _, device := range devices {
		_, _ = fmt.Printf("%s\t%s", device.Path, device.Name)
		if vidpid := device.Metadata["vidpid"]; vidpid != "" {
			_, _ = fmt.Printf("\t%s", vidpid)
		}
		_, _ = fmt.Println()
	}
	return nil
}
