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

/*
Package cr95hf provides a pure Go library for the STMicroelectronics CR95HF
NFC/RFID transceiver.

The CR95HF is a 13.56 MHz contactless transceiver driven over a framed,
half-duplex serial link. This library brings the chip out of reset into
ISO14443-A mode and runs the anticollision/selection procedure to recover a
tag's UID and SAK, with NDEF access for NTAG21x type-2 tags on top.

Features:
  - UART (57600 baud, 8N2) and SPI transports
  - ISO14443-A discovery with two-cascade-level UID assembly
  - SAK-based card family classification
  - NDEF message reading and writing on NTAG21x tags
  - Reader auto-detection across Linux, macOS and Windows
  - Polling helpers with card state tracking

Basic usage:

	import (
	    "github.com/ZaparooProject/go-cr95hf"
	    "github.com/ZaparooProject/go-cr95hf/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := cr95hf.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}
	fmt.Println("reader:", device.DeviceName())

	for {
	    tag, err := device.DetectTag()
	    if errors.Is(err, cr95hf.ErrNoTagDetected) {
	        time.Sleep(200 * time.Millisecond)
	        continue
	    }
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Printf("UID: %s  Type: %s\n", tag.UID, tag.CardType())
	}

The device is fully synchronous and single-owner: all calls must come from
one goroutine, and the caller owns the polling cadence. The polling
subpackage provides a monitor that serializes device access for callers who
want callbacks instead of a loop.
*/
package cr95hf
