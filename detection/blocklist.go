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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns the VID:PID entries of USB serial devices that
// are known to misbehave when probed. Entries are hex, case does not matter.
func DefaultBlocklist() []string {
	// No entries yet. Devices go here once a probe is confirmed to wedge
	// them, one "VID:PID" string per line with a note on the hardware.
	return []string{}
}

// IsBlocked reports whether vidpid matches an entry in the blocklist.
// Both sides are trimmed and compared case-insensitively.
func IsBlocked(vidpid string, blocklist []string) bool {
	want := canonicalVIDPID(vidpid)
	for _, entry := range blocklist {
		if canonicalVIDPID(entry) == want {
			return true
		}
	}
	return false
}

func canonicalVIDPID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Marker prefixes that introduce the vendor and product IDs in the
// descriptor strings produced by the various platform enumerators.
var (
	vidMarkers = []string{"VID:", "VENDOR=", "VID="}
	pidMarkers = []string{"PID:", "PRODUCT=", "PID="}
)

// ParseVIDPID pulls a "VID:PID" pair out of a USB descriptor string.
// Accepted inputs include "VID:1234 PID:5678", "vendor=1234 product=5678",
// and the bare "1234:5678" form. Returns "" when no pair can be found.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(descriptor)

	vid := hexAfter(descriptor, vidMarkers)
	pid := hexAfter(descriptor, pidMarkers)
	if vid != "" && pid != "" {
		return vid + ":" + pid
	}

	// Bare form. isHexDigits rejects a second colon, so no count check
	// is needed.
	if left, right, ok := strings.Cut(descriptor, ":"); ok &&
		isHexDigits(left) && isHexDigits(right) {
		return descriptor
	}
	return ""
}

// hexAfter returns the first run of hex digits following the first
// marker found in s, or "" when no marker is present.
func hexAfter(s string, markers []string) string {
	for _, marker := range markers {
		if i := strings.Index(s, marker); i >= 0 {
			return firstHexRun(s[i+len(marker):])
		}
	}
	return ""
}

// firstHexRun skips leading non-hex characters and returns the first
// contiguous run of uppercase hex digits.
func firstHexRun(s string) string {
	start := -1
	for i := 0; i < len(s); i++ {
		if isHexDigit(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// IsPathIgnored reports whether devicePath matches an entry in
// ignorePaths, either verbatim or after path cleaning and case folding.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}

	want := foldPath(devicePath)
	for _, ignore := range ignorePaths {
		if ignore == "" {
			continue
		}
		if devicePath == ignore || foldPath(ignore) == want {
			return true
		}
	}
	return false
}

// foldPath cleans a device path and lowercases it so that COM ports and
// paths with relative components compare equal.
func foldPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
