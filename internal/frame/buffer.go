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

package frame

import (
	"sync"
)

// Scratch-buffer pool for the hot read path. Polling loops run an exchange
// every couple hundred milliseconds; pooling the per-read scratch buffers
// keeps that loop allocation-free.

const smallBufferSize = 32

var smallPool = sync.Pool{
	New: func() any {
		buf := make([]byte, smallBufferSize)
		return &buf
	},
}

// GetSmallBuffer returns a scratch buffer of at least n bytes (n <= 32)
func GetSmallBuffer(n int) []byte {
	if n > smallBufferSize {
		return make([]byte, n)
	}
	return (*smallPool.Get().(*[]byte))[:n]
}

// PutBuffer returns a buffer obtained from GetSmallBuffer
func PutBuffer(buf []byte) {
	buf = buf[:cap(buf)]
	if cap(buf) == smallBufferSize {
		smallPool.Put(&buf)
	}
}
